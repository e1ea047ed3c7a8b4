package app

import (
	"context"

	"studyring-service/internal/domain"
)

// ProgressRepository abstracts the ledger store. ApplyDelta and ResetField must
// be atomic in-place updates (hours = hours + ?), never read-modify-write, so
// concurrent deltas to the same user both land.
type ProgressRepository interface {
	ApplyDelta(ctx context.Context, userID string, hoursDelta float64, pointsDelta int) (domain.Progress, error)
	ResetField(ctx context.Context, userID string, field domain.ProgressField) (domain.Progress, error)
	GetProgress(ctx context.Context, userID string) (domain.Progress, error)
}

// ProgressService owns the per-user study ledger use cases.
type ProgressService struct {
	repo     ProgressRepository
	notifier RankingNotifier
}

func NewProgressService(repo ProgressRepository, notifier RankingNotifier) *ProgressService {
	return &ProgressService{repo: repo, notifier: notifier}
}

// ApplyDelta adds non-negative hour/point deltas to the caller's ledger.
func (s *ProgressService) ApplyDelta(ctx context.Context, userID string, hoursDelta float64, pointsDelta int) (domain.Progress, error) {
	if hoursDelta < 0 || pointsDelta < 0 {
		return domain.Progress{}, domain.ErrNegativeDelta
	}
	progress, err := s.repo.ApplyDelta(ctx, userID, hoursDelta, pointsDelta)
	if err != nil {
		return domain.Progress{}, err
	}
	if s.notifier != nil && (hoursDelta > 0 || pointsDelta > 0) {
		s.notifier.RankingChanged(ctx)
	}
	return progress, nil
}

// LogSession converts a captured study session into an hours delta.
func (s *ProgressService) LogSession(ctx context.Context, userID string, durationMinutes int) (domain.Progress, error) {
	if durationMinutes <= 0 {
		return domain.Progress{}, domain.ErrNegativeDelta
	}
	return s.ApplyDelta(ctx, userID, float64(durationMinutes)/60, 0)
}

// Reset zeroes a single ledger field. Irreversible; owner-only, enforced by
// the transport handing us the authenticated caller as userID.
func (s *ProgressService) Reset(ctx context.Context, userID string, field domain.ProgressField) (domain.Progress, error) {
	progress, err := s.repo.ResetField(ctx, userID, field)
	if err != nil {
		return domain.Progress{}, err
	}
	if s.notifier != nil {
		s.notifier.RankingChanged(ctx)
	}
	return progress, nil
}

// Read returns the caller's ledger.
func (s *ProgressService) Read(ctx context.Context, userID string) (domain.Progress, error) {
	return s.repo.GetProgress(ctx, userID)
}
