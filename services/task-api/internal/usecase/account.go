package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
)

// AccountUsecase defines the operations a user performs on their own account.
type AccountUsecase interface {
	// Register creates a user from data and signs them in.
	Register(ctx context.Context, data map[string]any) (*model.User, string, error)
	UpdateProfile(ctx context.Context, user *model.User, data map[string]any) (*model.User, error)
	// DeleteAccount removes the user together with every task they own.
	DeleteAccount(ctx context.Context, user *model.User) (*model.User, error)
}

type accountUsecase struct {
	users    DocumentUsecase[*model.User]
	tasks    DocumentUsecase[*model.Task]
	auth     AuthUsecase
	notifier Notifier
	logger   *zerolog.Logger
}

func NewAccountUsecase(
	users DocumentUsecase[*model.User],
	tasks DocumentUsecase[*model.Task],
	auth AuthUsecase,
	notifier Notifier,
	logger *zerolog.Logger,
) AccountUsecase {
	return &accountUsecase{
		users:    users,
		tasks:    tasks,
		auth:     auth,
		notifier: notifier,
		logger:   logger,
	}
}

func (u *accountUsecase) Register(ctx context.Context, data map[string]any) (*model.User, string, error) {
	user, err := u.users.Create(ctx, data)
	if err != nil {
		return nil, "", err
	}

	token, err := u.auth.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	if err := u.notifier.Welcome(ctx, user); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send welcome email")
	}

	return user, token, nil
}

func (u *accountUsecase) UpdateProfile(
	ctx context.Context,
	user *model.User,
	data map[string]any,
) (*model.User, error) {
	return u.users.UpdateByIDAndOwner(ctx, user.ID.Hex(), user.ID, data, model.UserUpdatableFields)
}

func (u *accountUsecase) DeleteAccount(ctx context.Context, user *model.User) (*model.User, error) {
	deleted, err := u.users.DeleteByID(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}

	count, err := u.tasks.DeleteAllByOwner(ctx, deleted.ID)
	if err != nil {
		return nil, err
	}
	u.logger.Info().Str("user_id", deleted.ID.Hex()).Int64("tasks", count).Msg("account deleted")

	if err := u.notifier.Farewell(ctx, deleted); err != nil {
		u.logger.Warn().Err(err).Str("user_id", deleted.ID.Hex()).Msg("failed to send farewell email")
	}

	return deleted, nil
}
