package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"studyring-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RankHistory stores the previous-rank baseline as one hash per metric:
// HSET rankings:prev:{metric} {userID} {rank}. The baseline is replaced
// wholesale after every ranking pass so departed users drop out of it.
type RankHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankHistory(client *redis.Client, ttl time.Duration) *RankHistory {
	return &RankHistory{client: client, ttl: ttl}
}

func (h *RankHistory) PreviousRanks(ctx context.Context, metric domain.Metric) (map[string]int, error) {
	raw, err := h.client.HGetAll(ctx, h.key(metric)).Result()
	if err != nil {
		return nil, fmt.Errorf("load rank baseline: %w", err)
	}
	ranks := make(map[string]int, len(raw))
	for userID, value := range raw {
		rank, err := strconv.Atoi(value)
		if err != nil {
			continue // ignore a corrupt field rather than poison the whole baseline
		}
		ranks[userID] = rank
	}
	return ranks, nil
}

func (h *RankHistory) SaveRanks(ctx context.Context, metric domain.Metric, ranks map[string]int) error {
	key := h.key(metric)
	fields := make(map[string]interface{}, len(ranks))
	for userID, rank := range ranks {
		fields[userID] = rank
	}

	pipe := h.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	if h.ttl > 0 {
		pipe.Expire(ctx, key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save rank baseline: %w", err)
	}
	return nil
}

func (h *RankHistory) key(metric domain.Metric) string {
	return "rankings:prev:" + string(metric)
}
