package app_test

import (
	"context"
	"sync"
	"testing"

	"studyring-service/internal/app"
	"studyring-service/internal/domain"
	"studyring-service/internal/infra/memory"
)

func TestSubmitAnswerCorrectCreditsLedger(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	result, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect || result.PointsAwarded != 50 {
		t.Fatalf("expected correct with 50 points, got %+v", result)
	}

	progress, _ := fix.store.GetProgress(ctx, "answerer")
	if progress.Points != 50 {
		t.Fatalf("expected ledger credited with 50, got %d", progress.Points)
	}
}

func TestSubmitAnswerWrongOptionAwardsNothing(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	result, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.IsCorrect || result.PointsAwarded != 0 {
		t.Fatalf("expected incorrect with 0 points, got %+v", result)
	}

	progress, _ := fix.store.GetProgress(ctx, "answerer")
	if progress.Points != 0 {
		t.Fatalf("wrong answer must not credit points, got %d", progress.Points)
	}
}

func TestSubmitAnswerSecondAttemptRejected(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 2); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 0); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	progress, _ := fix.store.GetProgress(ctx, "answerer")
	if progress.Points != 50 {
		t.Fatalf("second attempt must not change ledger, got %d", progress.Points)
	}
}

func TestSubmitAnswerRaceCreditsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 2)
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case domain.ErrAlreadyAnswered:
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != 1 {
		t.Fatalf("expected exactly one success and one duplicate, got %d/%d", successes, duplicates)
	}

	progress, _ := fix.store.GetProgress(ctx, "answerer")
	if progress.Points != 50 {
		t.Fatalf("points must be credited exactly once, got %d", progress.Points)
	}
}

func TestSubmitAnswerSelfAnswerForbidden(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "author", 2); err != domain.ErrSelfAnswer {
		t.Fatalf("expected ErrSelfAnswer, got %v", err)
	}

	progress, _ := fix.store.GetProgress(ctx, "author")
	if progress.Points != 0 {
		t.Fatalf("self answer must never mutate ledger, got %d", progress.Points)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	if _, err := fix.quizzes.SubmitAnswer(ctx, "missing-post", "answerer", 0); err != domain.ErrPostNotFound {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 4); err != domain.ErrInvalidOption {
		t.Fatalf("expected ErrInvalidOption for index 4, got %v", err)
	}
	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", -1); err != domain.ErrInvalidOption {
		t.Fatalf("expected ErrInvalidOption for index -1, got %v", err)
	}
	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.textPostID, "answerer", 0); err != domain.ErrNotQuiz {
		t.Fatalf("expected ErrNotQuiz, got %v", err)
	}
}

type quizFixture struct {
	store      *memory.ProgressStore
	posts      *memory.PostStore
	quizzes    *app.QuizService
	postSvc    *app.PostService
	postID     string
	textPostID string
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	ctx := context.Background()
	store := seedUsers(t, "author", "answerer")
	posts := memory.NewPostStore()

	postSvc := app.NewPostService(posts, posts)
	quiz, err := postSvc.CreatePost(ctx, "g1", "author", domain.PostContent{
		Kind: domain.KindQuiz,
		Quiz: &domain.QuizContent{
			Question:     "Capital of France?",
			Options:      []string{"A", "B", "C", "D"},
			CorrectIndex: 2,
			PointsAward:  50,
		},
	})
	if err != nil {
		t.Fatalf("create quiz post: %v", err)
	}
	text, err := postSvc.CreatePost(ctx, "g1", "author", domain.PostContent{
		Kind: domain.KindText,
		Text: &domain.TextContent{Body: "studying hard today"},
	})
	if err != nil {
		t.Fatalf("create text post: %v", err)
	}

	return &quizFixture{
		store:      store,
		posts:      posts,
		quizzes:    app.NewQuizService(posts, posts, store, nil),
		postSvc:    postSvc,
		postID:     quiz.ID,
		textPostID: text.ID,
	}
}

func TestListPostsAttachesViewerAnswer(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	if _, err := fix.quizzes.SubmitAnswer(ctx, fix.postID, "answerer", 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	views, err := fix.postSvc.ListPosts(ctx, "g1", "answerer")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(views))
	}

	var quizView *domain.PostView
	for i := range views {
		if views[i].ID == fix.postID {
			quizView = &views[i]
		}
	}
	if quizView == nil {
		t.Fatalf("quiz post missing from listing")
	}
	if quizView.ViewerAnswer == nil || !quizView.ViewerAnswer.IsCorrect || quizView.ViewerAnswer.OptionIndex != 2 {
		t.Fatalf("expected viewer answer attached, got %+v", quizView.ViewerAnswer)
	}

	// A different viewer sees no answer.
	views, err = fix.postSvc.ListPosts(ctx, "g1", "author")
	if err != nil {
		t.Fatalf("list as author: %v", err)
	}
	for _, view := range views {
		if view.ViewerAnswer != nil {
			t.Fatalf("author has not answered, got %+v", view.ViewerAnswer)
		}
	}
}

func TestQuizDefaultAward(t *testing.T) {
	ctx := context.Background()
	fix := newQuizFixture(t)

	post, err := fix.postSvc.CreatePost(ctx, "g1", "author", domain.PostContent{
		Kind: domain.KindQuiz,
		Quiz: &domain.QuizContent{
			Question:     "2 + 2?",
			Options:      []string{"3", "4"},
			CorrectIndex: 1,
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := fix.quizzes.SubmitAnswer(ctx, post.ID, "answerer", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.PointsAwarded != domain.DefaultQuizPoints {
		t.Fatalf("expected default award %d, got %d", domain.DefaultQuizPoints, result.PointsAwarded)
	}
}
