package app

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"studyring-service/internal/domain"
)

// RankingSource loads every ledger row joined with user identity.
type RankingSource interface {
	LoadAll(ctx context.Context) ([]domain.ProgressRow, error)
}

// RankHistory persists the previous-rank baseline per metric. Trend must be
// computed against a genuine prior rank, not the metric delta: a user's rank
// can move even when their own score does not.
type RankHistory interface {
	PreviousRanks(ctx context.Context, metric domain.Metric) (map[string]int, error)
	SaveRanks(ctx context.Context, metric domain.Metric, ranks map[string]int) error
}

// TrendWriter refreshes the stored trend column after a ranking pass.
type TrendWriter interface {
	UpdateTrends(ctx context.Context, trends map[string]domain.Trend) error
}

// RankingNotifier is how write paths tell the ranking layer that order may
// have changed. RankingService implements it by pushing fresh rankings to
// live subscribers.
type RankingNotifier interface {
	RankingChanged(ctx context.Context)
}

// RankingService computes the leaderboard on demand and fans fresh rankings
// out to websocket subscribers.
type RankingService struct {
	source  RankingSource
	history RankHistory
	trends  TrendWriter
	now     func() time.Time

	mu   sync.Mutex
	subs map[domain.Metric]map[chan domain.Ranking]struct{}
}

func NewRankingService(source RankingSource, history RankHistory, trends TrendWriter) *RankingService {
	return &RankingService{
		source:  source,
		history: history,
		trends:  trends,
		now:     time.Now,
		subs:    make(map[domain.Metric]map[chan domain.Ranking]struct{}),
	}
}

// NewRankingServiceWithClock is test-only for deterministic timestamps.
func NewRankingServiceWithClock(source RankingSource, history RankHistory, trends TrendWriter, now func() time.Time) *RankingService {
	s := NewRankingService(source, history, trends)
	s.now = now
	return s
}

// ComputeRanking produces the full ordered leaderboard for a metric.
// Order: metric descending, tie-broken by the other metric descending, then
// user ID ascending so repeated calls without writes are identical. The new
// ranks replace the stored baseline once trends are derived from the old one.
func (s *RankingService) ComputeRanking(ctx context.Context, metric domain.Metric) (domain.Ranking, error) {
	rows, err := s.source.LoadAll(ctx)
	if err != nil {
		return domain.Ranking{}, err
	}

	sort.Slice(rows, func(i, j int) bool {
		return rowLess(metric, rows[i], rows[j])
	})

	previous, err := s.history.PreviousRanks(ctx, metric)
	if err != nil {
		// A lost baseline only degrades trends to neutral; the order stands.
		log.Printf("ranking: previous ranks unavailable: %v", err)
		previous = nil
	}

	entries := make([]domain.RankingEntry, len(rows))
	ranks := make(map[string]int, len(rows))
	trends := make(map[string]domain.Trend, len(rows))
	for i, row := range rows {
		rank := i + 1
		trend := trendFor(previous, row.User.ID, rank)
		entries[i] = domain.RankingEntry{
			Rank:   rank,
			User:   row.User,
			Hours:  row.Hours,
			Points: row.Points,
			Trend:  trend,
		}
		ranks[row.User.ID] = rank
		trends[row.User.ID] = trend
	}

	if err := s.history.SaveRanks(ctx, metric, ranks); err != nil {
		log.Printf("ranking: save baseline: %v", err)
	}
	// The stored trend column follows the points board, the default view.
	if s.trends != nil && metric == domain.MetricPoints {
		if err := s.trends.UpdateTrends(ctx, trends); err != nil {
			log.Printf("ranking: update trends: %v", err)
		}
	}

	return domain.Ranking{Metric: metric, Entries: entries, UpdatedAt: s.now()}, nil
}

func rowLess(metric domain.Metric, a, b domain.ProgressRow) bool {
	if metric == domain.MetricHours {
		if a.Hours != b.Hours {
			return a.Hours > b.Hours
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.User.ID < b.User.ID
	}
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.Hours != b.Hours {
		return a.Hours > b.Hours
	}
	return a.User.ID < b.User.ID
}

func trendFor(previous map[string]int, userID string, rank int) domain.Trend {
	prev, ok := previous[userID]
	if !ok {
		return domain.TrendNeutral
	}
	switch {
	case rank < prev:
		return domain.TrendUp
	case rank > prev:
		return domain.TrendDown
	default:
		return domain.TrendNeutral
	}
}

// Subscribe returns a channel receiving the current ranking immediately and a
// fresh one after every ledger write. The caller must invoke cancel.
func (s *RankingService) Subscribe(ctx context.Context, metric domain.Metric) (<-chan domain.Ranking, func(), error) {
	initial, err := s.ComputeRanking(ctx, metric)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Ranking, 8)
	s.mu.Lock()
	if s.subs[metric] == nil {
		s.subs[metric] = make(map[chan domain.Ranking]struct{})
	}
	s.subs[metric][ch] = struct{}{}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[metric][ch]; ok {
			delete(s.subs[metric], ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// RankingChanged recomputes and broadcasts each metric that has subscribers.
func (s *RankingService) RankingChanged(ctx context.Context) {
	for _, metric := range domain.Metrics {
		s.mu.Lock()
		active := len(s.subs[metric]) > 0
		s.mu.Unlock()
		if !active {
			continue
		}
		ranking, err := s.ComputeRanking(ctx, metric)
		if err != nil {
			log.Printf("ranking: broadcast recompute (%s): %v", metric, err)
			continue
		}
		s.publish(metric, ranking)
	}
}

func (s *RankingService) publish(metric domain.Metric, ranking domain.Ranking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs[metric] {
		select {
		case ch <- ranking:
		default:
			// Drop the stale update so a slow client never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- ranking
		}
	}
}
