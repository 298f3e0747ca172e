package service

import (
	"context"
	"errors"

	"github.com/spec-kit/users-service/internal/auth"
	"github.com/spec-kit/users-service/internal/domain"
	"github.com/spec-kit/users-service/internal/events"
	"github.com/spec-kit/users-service/internal/repository"
	"github.com/spec-kit/users-service/pkg/util"
)

// UserService applies the business rules for the users resource. Every
// operation is a single terminal transaction; failures surface immediately
// with no retries.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, dispatcher: dispatcher}
}

// CreateUserInput describes the create payload.
type CreateUserInput struct {
	Name     string
	Email    string
	Username string
	Status   *domain.UserStatus
	IsActive *int16
	Avatar   *string
	ClientID *string
}

// UpdateUserInput describes the partial update payload. Nil fields are
// preserved from the existing entity.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Username *string
	Status   *domain.UserStatus
	IsActive *int16
	Avatar   *string
	ClientID *string
}

// List pages through users with an optional keyword filter.
func (s *UserService) List(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.User], error) {
	return s.users.List(ctx, req)
}

// Detail fetches a single user by id.
func (s *UserService) Detail(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewNotFoundError("User not found!")
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a new user after the cross-field uniqueness check: the
// candidate username (explicit username, else email) and the email must not
// collide case-insensitively with any existing email or username.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	username := input.Username
	if username == "" {
		username = input.Email
	}

	exist, err := s.users.FindDuplicate(ctx, 0, input.Email, username)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, util.NewDuplicateError("Email or username is invalid or has been used!")
	}

	user := &domain.User{
		Name:     input.Name,
		Email:    input.Email,
		Username: username,
		Status:   domain.UserStatusEnabled,
		IsActive: 1,
	}
	user.ClientID = input.ClientID
	user.Avatar = input.Avatar
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	actor, hasActor := auth.ActingUserFrom(ctx)
	if hasActor {
		id := actor.ID
		user.CreatedBy = &id
		user.UpdatedBy = &id
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserCreated, saved.ID, events.UserCreatedPayload{
		Email:    saved.Email,
		Username: saved.Username,
	})
	return saved, nil
}

// Update shallow-merges the provided fields over the existing user and
// persists the result. Omitted fields are preserved.
func (s *UserService) Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.NewNotFoundError("User not found!")
	}

	var changed []string
	if input.Name != nil {
		user.Name = *input.Name
		changed = append(changed, "name")
	}
	if input.Email != nil {
		user.Email = *input.Email
		changed = append(changed, "email")
	}
	if input.Username != nil {
		user.Username = *input.Username
		changed = append(changed, "username")
	}
	if input.Status != nil {
		user.Status = *input.Status
		changed = append(changed, "status")
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
		changed = append(changed, "isActive")
	}
	if input.Avatar != nil {
		user.Avatar = input.Avatar
		changed = append(changed, "avatar")
	}
	if input.ClientID != nil {
		user.ClientID = input.ClientID
		changed = append(changed, "clientId")
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		// the row can be soft-deleted between the lookup and the UPDATE
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewNotFoundError("User not found!")
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserUpdated, saved.ID, events.UserUpdatedPayload{Fields: changed})
	return saved, nil
}

// Delete soft-deletes the user and reports the affected count.
func (s *UserService) Delete(ctx context.Context, id int64) (int64, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, util.NewNotFoundError("User not found!")
	}

	affected, err := s.users.SoftDeleteByID(ctx, id)
	if err != nil {
		return 0, err
	}

	s.publish(ctx, events.EventUserDeleted, id, events.UserDeletedPayload{Affected: affected})
	return affected, nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	var actor *auth.ActingUser
	if acting, ok := auth.ActingUserFrom(ctx); ok {
		actor = &acting
	}
	_ = s.dispatcher.Publish(ctx, events.New(eventType, userID, actor, payload))
}
