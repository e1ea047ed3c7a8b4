package memory

import (
	"context"
	"sync"

	"studyring-service/internal/domain"
)

// ProgressStore keeps users and their ledgers in process memory. It backs
// tests and the zero-dependency dev mode; the postgres store is the
// production implementation.
type ProgressStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	emails   map[string]struct{}
	progress map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		users:    make(map[string]domain.User),
		emails:   make(map[string]struct{}),
		progress: make(map[string]domain.Progress),
	}
}

// Create registers the user and the zeroed ledger row together, mirroring the
// single transaction the postgres store uses.
func (s *ProgressStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email != "" {
		if _, taken := s.emails[user.Email]; taken {
			return domain.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	if user.Email != "" {
		s.emails[user.Email] = struct{}{}
	}
	s.progress[user.ID] = domain.Progress{UserID: user.ID, Trend: domain.TrendNeutral}
	return nil
}

func (s *ProgressStore) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *ProgressStore) ApplyDelta(_ context.Context, userID string, hoursDelta float64, pointsDelta int) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[userID]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	progress.Hours += hoursDelta
	progress.Points += pointsDelta
	s.progress[userID] = progress
	return progress, nil
}

func (s *ProgressStore) ResetField(_ context.Context, userID string, field domain.ProgressField) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	progress, ok := s.progress[userID]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	switch field {
	case domain.FieldHours:
		progress.Hours = 0
	case domain.FieldPoints:
		progress.Points = 0
	default:
		return domain.Progress{}, domain.ErrUnknownField
	}
	s.progress[userID] = progress
	return progress, nil
}

// GetProgress implements app.ProgressRepository's read.
func (s *ProgressStore) GetProgress(_ context.Context, userID string) (domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[userID]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return progress, nil
}

// LoadAll implements app.RankingSource.
func (s *ProgressStore) LoadAll(_ context.Context) ([]domain.ProgressRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.ProgressRow, 0, len(s.progress))
	for userID, progress := range s.progress {
		rows = append(rows, domain.ProgressRow{
			User:   s.users[userID],
			Hours:  progress.Hours,
			Points: progress.Points,
		})
	}
	return rows, nil
}

// UpdateTrends implements app.TrendWriter.
func (s *ProgressStore) UpdateTrends(_ context.Context, trends map[string]domain.Trend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, trend := range trends {
		if progress, ok := s.progress[userID]; ok {
			progress.Trend = trend
			s.progress[userID] = progress
		}
	}
	return nil
}
