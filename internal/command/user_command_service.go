package command

import (
	"context"
	"time"

	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/cqrs"
	"github.com/eaglebank/ledger-service/shared/events"
	"github.com/eaglebank/ledger-service/shared/models"
)

// UserCommandService writes users with their profiles and keeps the cached
// user views in sync.
type UserCommandService struct {
	store        repository.TxRunner
	userViews    userViewInvalidator
	accountViews accountViewInvalidator
	publisher    EventPublisher
}

func NewUserCommandService(
	store repository.TxRunner,
	userViews userViewInvalidator,
	accountViews accountViewInvalidator,
	publisher EventPublisher,
) *UserCommandService {
	return &UserCommandService{
		store:        store,
		userViews:    userViews,
		accountViews: accountViews,
		publisher:    publisher,
	}
}

// CreateUser inserts the user and its profile together.
func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	user := &models.User{
		Name:      cmd.Name,
		Email:     cmd.Email,
		CreatedAt: time.Now().UTC(),
	}
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		if err := w.CreateUser(ctx, user); err != nil {
			return err
		}
		profile := &models.Profile{Bio: cmd.Bio, UserID: user.ID}
		if err := w.CreateProfile(ctx, profile); err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// UpdateUser applies the non-nil fields of cmd. A bio update requires the
// profile to exist.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.User, error) {
	var user *models.User
	var accountIDs []int64
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		var err error
		user, err = w.GetUser(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if cmd.Name != nil || cmd.Email != nil {
			if cmd.Name != nil {
				user.Name = *cmd.Name
			}
			if cmd.Email != nil {
				user.Email = *cmd.Email
			}
			if err := w.UpdateUser(ctx, user); err != nil {
				return err
			}
		}
		if cmd.Bio != nil {
			profile, err := w.UpdateProfileBio(ctx, user.ID, *cmd.Bio)
			if err != nil {
				return err
			}
			user.Profile = profile
		}
		// Account detail views embed the owner, so they go stale too.
		accountIDs, err = w.ListAccountIDsByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.userViews.InvalidateUserView(ctx, user.ID)
	if len(accountIDs) > 0 {
		s.accountViews.InvalidateAccountViews(ctx, accountIDs...)
	}
	publish(ctx, s.publisher, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		AccountIDs: accountIDs,
	})
	return user, nil
}

// DeleteUser removes the profile and then the user in one transaction and
// returns the deleted user. A user without a profile is left untouched.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) (*models.User, error) {
	var deleted *models.User
	err := s.store.WithTx(ctx, func(w repository.Writer) error {
		if err := w.DeleteProfileByUserID(ctx, cmd.UserID); err != nil {
			return err
		}
		var err error
		deleted, err = w.DeleteUser(ctx, cmd.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.userViews.InvalidateUserView(ctx, deleted.ID)
	publish(ctx, s.publisher, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID: deleted.ID,
	})
	return deleted, nil
}
