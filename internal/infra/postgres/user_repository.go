package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyring-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// UserRepository stores identity records in Postgres via bun.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and its zeroed ledger row in one transaction, so a
// registered user always has a ledger.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&userModel{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Avatar:    user.Avatar,
			Bio:       user.Bio,
			CreatedAt: user.CreatedAt,
		}).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&progressModel{
			UserID: user.ID,
			Trend:  string(domain.TrendNeutral),
		}).Exec(ctx)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var model userModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return domain.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Avatar:    model.Avatar,
		Bio:       model.Bio,
		CreatedAt: model.CreatedAt,
	}, nil
}

// isUniqueViolation reports whether err is Postgres error 23505.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
