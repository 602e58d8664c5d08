package services

import (
	"context"
	"log"

	"github.com/userdesk/apiserver/internal/mq"
	"github.com/userdesk/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases. Lifecycle changes are announced
// on the event channel; publish failures are logged and never surfaced to
// the caller.
type UserService struct {
	repo   UserRepository
	events *mq.Events
}

func NewUserService(repo UserRepository, events *mq.Events) *UserService {
	return &UserService{
		repo:   repo,
		events: events,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	if s.events != nil {
		if err := s.events.UserCreated(ctx, created.ID, created.Email); err != nil {
			log.Printf("publish user.created for %d: %v", created.ID, err)
		}
	}
	return created, nil
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	if s.events != nil {
		if err := s.events.UserUpdated(ctx, updated.ID, updated.Email); err != nil {
			log.Printf("publish user.updated for %d: %v", updated.ID, err)
		}
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.UserDeleted(ctx, id); err != nil {
			log.Printf("publish user.deleted for %d: %v", id, err)
		}
	}
	return nil
}
