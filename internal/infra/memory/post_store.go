package memory

import (
	"context"
	"sort"
	"sync"

	"studyring-service/internal/domain"
)

type answerKey struct {
	postID string
	userID string
}

// PostStore keeps group posts and quiz answers in process memory. The answers
// map keyed by (postID, userID) stands in for the composite primary key the
// postgres store relies on.
type PostStore struct {
	mu      sync.RWMutex
	posts   map[string]domain.Post
	answers map[answerKey]domain.Answer
}

func NewPostStore() *PostStore {
	return &PostStore{
		posts:   make(map[string]domain.Post),
		answers: make(map[answerKey]domain.Answer),
	}
}

func (s *PostStore) CreatePost(_ context.Context, post domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	return nil
}

func (s *PostStore) GetPost(_ context.Context, postID string) (domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[postID]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, nil
}

func (s *PostStore) ListPosts(_ context.Context, groupID string) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var posts []domain.Post
	for _, post := range s.posts {
		if post.GroupID == groupID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

// Insert enforces at most one answer per (post, user); the duplicate loses.
func (s *PostStore) Insert(_ context.Context, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey{postID: answer.PostID, userID: answer.UserID}
	if _, exists := s.answers[key]; exists {
		return domain.ErrAlreadyAnswered
	}
	s.answers[key] = answer
	return nil
}

func (s *PostStore) ForUser(_ context.Context, userID string, postIDs []string) (map[string]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]domain.Answer)
	for _, postID := range postIDs {
		if answer, ok := s.answers[answerKey{postID: postID, userID: userID}]; ok {
			found[postID] = answer
		}
	}
	return found, nil
}
