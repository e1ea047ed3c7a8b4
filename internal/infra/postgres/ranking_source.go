package postgres

import (
	"context"
	"fmt"

	"studyring-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RankingSource serves the leaderboard read path over pgx, keeping the
// all-users join off the bun write connection.
type RankingSource struct {
	pool *pgxpool.Pool
}

func NewRankingSource(pool *pgxpool.Pool) *RankingSource {
	return &RankingSource{pool: pool}
}

func (s *RankingSource) LoadAll(ctx context.Context) ([]domain.ProgressRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.name, u.avatar, p.hours, p.points
		FROM users u
		JOIN user_progress p ON p.user_id = u.id`)
	if err != nil {
		return nil, fmt.Errorf("load progress rows: %w", err)
	}
	defer rows.Close()

	var out []domain.ProgressRow
	for rows.Next() {
		var row domain.ProgressRow
		if err := rows.Scan(&row.User.ID, &row.User.Name, &row.User.Avatar, &row.Hours, &row.Points); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress rows: %w", err)
	}
	return out, nil
}
