package app

import (
	"context"
	"time"

	"studyring-service/internal/domain"
	"github.com/google/uuid"
)

// PostService owns group post creation and listing. Content arrives already
// decoded into its tagged variant; this layer only re-validates and stamps
// identity.
type PostService struct {
	posts   PostRepository
	answers AnswerRepository
	now     func() time.Time
	newID   func() string
}

func NewPostService(posts PostRepository, answers AnswerRepository) *PostService {
	return &PostService{
		posts:   posts,
		answers: answers,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// CreatePost stores a new post in a group.
func (s *PostService) CreatePost(ctx context.Context, groupID, authorID string, content domain.PostContent) (domain.Post, error) {
	if err := content.Validate(); err != nil {
		return domain.Post{}, err
	}
	post := domain.Post{
		ID:        s.newID(),
		GroupID:   groupID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// ListPosts returns a group's posts, newest first, with the viewer's recorded
// quiz answers attached so clients can render answered quizzes as terminal.
func (s *PostService) ListPosts(ctx context.Context, groupID, viewerID string) ([]domain.PostView, error) {
	posts, err := s.posts.ListPosts(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var quizIDs []string
	for _, post := range posts {
		if post.Content.Kind == domain.KindQuiz {
			quizIDs = append(quizIDs, post.ID)
		}
	}

	var viewerAnswers map[string]domain.Answer
	if viewerID != "" && len(quizIDs) > 0 {
		viewerAnswers, err = s.answers.ForUser(ctx, viewerID, quizIDs)
		if err != nil {
			return nil, err
		}
	}

	views := make([]domain.PostView, len(posts))
	for i, post := range posts {
		views[i] = domain.PostView{Post: post}
		if answer, ok := viewerAnswers[post.ID]; ok {
			views[i].ViewerAnswer = &domain.AnswerView{
				OptionIndex: answer.OptionIndex,
				IsCorrect:   answer.IsCorrect,
			}
		}
	}
	return views, nil
}
