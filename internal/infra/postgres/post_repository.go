package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"studyring-service/internal/domain"
	"github.com/uptrace/bun"
)

// PostRepository stores group posts with their tagged content as JSONB.
type PostRepository struct {
	db *bun.DB
}

func NewPostRepository(db *bun.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post domain.Post) error {
	content, err := json.Marshal(post.Content)
	if err != nil {
		return fmt.Errorf("encode post content: %w", err)
	}
	_, err = r.db.NewInsert().Model(&postModel{
		ID:        post.ID,
		GroupID:   post.GroupID,
		AuthorID:  post.AuthorID,
		Content:   content,
		CreatedAt: post.CreatedAt,
	}).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	var model postModel
	err := r.db.NewSelect().Model(&model).Where("id = ?", postID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, domain.ErrPostNotFound
		}
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	return toPost(model)
}

func (r *PostRepository) ListPosts(ctx context.Context, groupID string) ([]domain.Post, error) {
	var models []postModel
	err := r.db.NewSelect().
		Model(&models).
		Where("group_id = ?", groupID).
		OrderExpr("created_at DESC, id ASC").
		Limit(50).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(models))
	for _, model := range models {
		post, err := toPost(model)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func toPost(model postModel) (domain.Post, error) {
	var content domain.PostContent
	if err := json.Unmarshal(model.Content, &content); err != nil {
		return domain.Post{}, fmt.Errorf("decode post %s: %w", model.ID, err)
	}
	return domain.Post{
		ID:        model.ID,
		GroupID:   model.GroupID,
		AuthorID:  model.AuthorID,
		Content:   content,
		CreatedAt: model.CreatedAt,
	}, nil
}

// AnswerRepository stores quiz answers; the (post_id, user_id) primary key is
// what makes the second of two racing submissions fail deterministically.
type AnswerRepository struct {
	db *bun.DB
}

func NewAnswerRepository(db *bun.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) Insert(ctx context.Context, answer domain.Answer) error {
	_, err := r.db.NewInsert().Model(&answerModel{
		PostID:      answer.PostID,
		UserID:      answer.UserID,
		OptionIndex: answer.OptionIndex,
		IsCorrect:   answer.IsCorrect,
		AnsweredAt:  answer.AnsweredAt,
	}).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyAnswered
		}
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (r *AnswerRepository) ForUser(ctx context.Context, userID string, postIDs []string) (map[string]domain.Answer, error) {
	if len(postIDs) == 0 {
		return map[string]domain.Answer{}, nil
	}
	var models []answerModel
	err := r.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Where("post_id IN (?)", bun.In(postIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	out := make(map[string]domain.Answer, len(models))
	for _, model := range models {
		out[model.PostID] = domain.Answer{
			PostID:      model.PostID,
			UserID:      model.UserID,
			OptionIndex: model.OptionIndex,
			IsCorrect:   model.IsCorrect,
			AnsweredAt:  model.AnsweredAt,
		}
	}
	return out, nil
}
