package memory

import (
	"context"
	"sync"

	"studyring-service/internal/domain"
)

// RankHistory keeps the previous-rank baseline per metric in process memory.
type RankHistory struct {
	mu    sync.RWMutex
	ranks map[domain.Metric]map[string]int
}

func NewRankHistory() *RankHistory {
	return &RankHistory{ranks: make(map[domain.Metric]map[string]int)}
}

func (h *RankHistory) PreviousRanks(_ context.Context, metric domain.Metric) (map[string]int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stored := h.ranks[metric]
	out := make(map[string]int, len(stored))
	for userID, rank := range stored {
		out[userID] = rank
	}
	return out, nil
}

func (h *RankHistory) SaveRanks(_ context.Context, metric domain.Metric, ranks map[string]int) error {
	copied := make(map[string]int, len(ranks))
	for userID, rank := range ranks {
		copied[userID] = rank
	}
	h.mu.Lock()
	h.ranks[metric] = copied
	h.mu.Unlock()
	return nil
}
