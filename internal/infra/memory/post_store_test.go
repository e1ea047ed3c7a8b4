package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"studyring-service/internal/domain"
)

func TestAnswerInsertRejectsDuplicate(t *testing.T) {
	store := NewPostStore()
	ctx := context.Background()

	answer := domain.Answer{PostID: "p1", UserID: "u1", OptionIndex: 1, IsCorrect: true, AnsweredAt: time.Now()}
	if err := store.Insert(ctx, answer); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.Insert(ctx, answer); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	// Same user, different post is fine.
	other := answer
	other.PostID = "p2"
	if err := store.Insert(ctx, other); err != nil {
		t.Fatalf("insert for other post: %v", err)
	}
}

func TestAnswerInsertConcurrentDuplicates(t *testing.T) {
	store := NewPostStore()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Insert(ctx, domain.Answer{PostID: "p1", UserID: "u1", OptionIndex: i % 4})
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else if err != domain.ErrAlreadyAnswered {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winning insert, got %d", successes)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	store := NewPostStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		err := store.CreatePost(ctx, domain.Post{
			ID:        id,
			GroupID:   "g1",
			AuthorID:  "u1",
			Content:   domain.PostContent{Kind: domain.KindText, Text: &domain.TextContent{Body: id}},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	posts, err := store.ListPosts(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 3 || posts[0].ID != "c" || posts[2].ID != "a" {
		t.Fatalf("expected newest first [c b a], got %+v", posts)
	}
}
