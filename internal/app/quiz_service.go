package app

import (
	"context"
	"time"

	"studyring-service/internal/domain"
)

// PostRepository stores group posts. GetPost implementations may cache:
// quiz posts are immutable, so cached content never goes stale.
type PostRepository interface {
	CreatePost(ctx context.Context, post domain.Post) error
	GetPost(ctx context.Context, postID string) (domain.Post, error)
	ListPosts(ctx context.Context, groupID string) ([]domain.Post, error)
}

// AnswerRepository stores one-shot quiz answers. Insert must enforce the
// (postID, userID) uniqueness at the storage layer and return
// domain.ErrAlreadyAnswered on the duplicate, so two racing submissions from
// the same user resolve deterministically.
type AnswerRepository interface {
	Insert(ctx context.Context, answer domain.Answer) error
	ForUser(ctx context.Context, userID string, postIDs []string) (map[string]domain.Answer, error)
}

// QuizService validates and scores one-shot answers to peer-authored quizzes.
//
// Per (post, user) the state machine is Unanswered -> Answered(correct) or
// Answered(incorrect), terminal. The answer row is persisted before any points
// move, so a crash between the two steps can under-credit but never
// double-credit.
type QuizService struct {
	posts    PostRepository
	answers  AnswerRepository
	progress ProgressRepository
	notifier RankingNotifier
	now      func() time.Time
}

func NewQuizService(posts PostRepository, answers AnswerRepository, progress ProgressRepository, notifier RankingNotifier) *QuizService {
	return &QuizService{
		posts:    posts,
		answers:  answers,
		progress: progress,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitAnswer records a user's answer to a quiz post and credits the award
// to the answering user's ledger when correct.
func (s *QuizService) SubmitAnswer(ctx context.Context, postID, userID string, optionIndex int) (domain.AnswerResult, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if post.Content.Kind != domain.KindQuiz {
		return domain.AnswerResult{}, domain.ErrNotQuiz
	}
	if post.AuthorID == userID {
		return domain.AnswerResult{}, domain.ErrSelfAnswer
	}
	quiz := post.Content.Quiz
	if optionIndex < 0 || optionIndex >= len(quiz.Options) {
		return domain.AnswerResult{}, domain.ErrInvalidOption
	}

	isCorrect := optionIndex == quiz.CorrectIndex
	answer := domain.Answer{
		PostID:      postID,
		UserID:      userID,
		OptionIndex: optionIndex,
		IsCorrect:   isCorrect,
		AnsweredAt:  s.now(),
	}
	if err := s.answers.Insert(ctx, answer); err != nil {
		return domain.AnswerResult{}, err
	}

	if !isCorrect {
		return domain.AnswerResult{IsCorrect: false, PointsAwarded: 0}, nil
	}

	awarded := quiz.Award()
	if _, err := s.progress.ApplyDelta(ctx, userID, 0, awarded); err != nil {
		return domain.AnswerResult{}, err
	}
	if s.notifier != nil {
		s.notifier.RankingChanged(ctx)
	}
	return domain.AnswerResult{IsCorrect: true, PointsAwarded: awarded}, nil
}
