package app

import (
	"context"
	"time"

	"studyring-service/internal/domain"
	"github.com/google/uuid"
)

// UserRepository stores identity records. Create must insert the user and a
// zeroed ledger row in the same transaction so ApplyDelta can never race an
// unregistered user.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// UserService covers the slice of account handling this core owns:
// registration of the identity plus its ledger. Passwords and sessions belong
// to the auth collaborator.
type UserService struct {
	users UserRepository
	now   func() time.Time
	newID func() string
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{
		users: users,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Register creates a user together with a zeroed progress ledger.
func (s *UserService) Register(ctx context.Context, name, email, avatar, bio string) (domain.User, error) {
	user := domain.User{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Avatar:    avatar,
		Bio:       bio,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}
