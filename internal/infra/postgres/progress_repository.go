package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyring-service/internal/domain"
	"github.com/uptrace/bun"
)

// ProgressRepository mutates the ledger with single-statement in-place
// increments, so two concurrent deltas to the same user both land regardless
// of ordering. Lost updates are impossible without any explicit locking.
type ProgressRepository struct {
	db *bun.DB
}

func NewProgressRepository(db *bun.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) ApplyDelta(ctx context.Context, userID string, hoursDelta float64, pointsDelta int) (domain.Progress, error) {
	var model progressModel
	res, err := r.db.NewUpdate().
		Model(&model).
		Set("hours = hours + ?", hoursDelta).
		Set("points = points + ?", pointsDelta).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("apply delta: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return toProgress(model), nil
}

func (r *ProgressRepository) ResetField(ctx context.Context, userID string, field domain.ProgressField) (domain.Progress, error) {
	var column string
	switch field {
	case domain.FieldHours:
		column = "hours"
	case domain.FieldPoints:
		column = "points"
	default:
		return domain.Progress{}, domain.ErrUnknownField
	}

	var model progressModel
	res, err := r.db.NewUpdate().
		Model(&model).
		Set("? = 0", bun.Ident(column)).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("reset %s: %w", column, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return toProgress(model), nil
}

func (r *ProgressRepository) GetProgress(ctx context.Context, userID string) (domain.Progress, error) {
	var model progressModel
	err := r.db.NewSelect().Model(&model).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Progress{}, domain.ErrProgressNotFound
		}
		return domain.Progress{}, fmt.Errorf("get progress: %w", err)
	}
	return toProgress(model), nil
}

// UpdateTrends refreshes the trend column after a ranking pass.
func (r *ProgressRepository) UpdateTrends(ctx context.Context, trends map[string]domain.Trend) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for userID, trend := range trends {
			if _, err := tx.NewUpdate().
				Model((*progressModel)(nil)).
				Set("trend = ?", string(trend)).
				Where("user_id = ?", userID).
				Exec(ctx); err != nil {
				return fmt.Errorf("update trend for %s: %w", userID, err)
			}
		}
		return nil
	})
}

func toProgress(model progressModel) domain.Progress {
	return domain.Progress{
		UserID: model.UserID,
		Hours:  model.Hours,
		Points: model.Points,
		Trend:  domain.Trend(model.Trend),
	}
}
