package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/config"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/repository"
	"github.com/vasapolrittideah/task-tracker-api/shared/apperr"
	"github.com/vasapolrittideah/task-tracker-api/shared/auth"
	"github.com/vasapolrittideah/task-tracker-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Login checks credentials of the form {"email": ..., "password": ...}.
	Login(ctx context.Context, credentials map[string]any) (*model.User, error)
	// IssueToken signs a new bearer token for user and records it on the user.
	IssueToken(ctx context.Context, user *model.User) (string, error)
	// Authenticate resolves a bearer token to the user holding it.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context, user *model.User, token string) error
	LogoutAll(ctx context.Context, user *model.User) error
}

var (
	ErrMalformedCredentials = apperr.BadRequest("credentials must contain exactly email and password")
	ErrInvalidCredentials   = apperr.Unauthorized("invalid credentials")
	ErrInvalidToken         = apperr.Unauthorized("invalid token")
	ErrRevokedToken         = apperr.Unauthorized("please authenticate")
)

type authUsecase struct {
	userStore  repository.Store[*model.User]
	jwtAuth    auth.JWTAuthenticator
	taskAPICfg *config.TaskAPIConfig
}

func NewAuthUsecase(
	userStore repository.Store[*model.User],
	jwtAuth auth.JWTAuthenticator,
	taskAPICfg *config.TaskAPIConfig,
) AuthUsecase {
	return &authUsecase{
		userStore:  userStore,
		jwtAuth:    jwtAuth,
		taskAPICfg: taskAPICfg,
	}
}

func (u *authUsecase) Login(ctx context.Context, credentials map[string]any) (*model.User, error) {
	email, password, ok := parseCredentials(credentials)
	if !ok {
		return nil, ErrMalformedCredentials
	}

	user, err := u.userStore.FindOne(ctx, repository.Filter{Match: bson.M{"email": email}})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, apperr.Internal(err)
	}

	if ok, err := security.VerifyPassword(password, user.Password); err != nil {
		return nil, apperr.Internal(err)
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (u *authUsecase) IssueToken(ctx context.Context, user *model.User) (string, error) {
	claims := u.jwtAuth.NewSubjectClaims(user.ID.Hex(), u.taskAPICfg.Token.ExpiresIn)

	token, err := u.jwtAuth.GenerateToken(claims, u.taskAPICfg.Token.Secret)
	if err != nil {
		return "", apperr.Internal(err)
	}

	if err := u.userStore.Push(ctx, user.ID, "tokens", token); err != nil {
		return "", tokenStoreError(err)
	}
	user.Tokens = append(user.Tokens, token)

	return token, nil
}

func (u *authUsecase) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(token, u.taskAPICfg.Token.Secret, claims); err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := bson.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := u.userStore.FindOne(ctx, repository.Filter{
		ID:    &userID,
		Match: bson.M{"tokens": token},
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRevokedToken
		}

		return nil, apperr.Internal(err)
	}

	return user, nil
}

func (u *authUsecase) Logout(ctx context.Context, user *model.User, token string) error {
	if err := u.userStore.Pull(ctx, user.ID, "tokens", token); err != nil {
		return tokenStoreError(err)
	}
	user.Tokens = slices.DeleteFunc(user.Tokens, func(t string) bool { return t == token })

	return nil
}

func (u *authUsecase) LogoutAll(ctx context.Context, user *model.User) error {
	if err := u.userStore.Set(ctx, user.ID, "tokens", []string{}); err != nil {
		return tokenStoreError(err)
	}
	user.Tokens = []string{}

	return nil
}

func tokenStoreError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("user not found")
	}

	return apperr.Internal(err)
}

func parseCredentials(credentials map[string]any) (string, string, bool) {
	if len(credentials) != 2 {
		return "", "", false
	}

	email, ok := credentials["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", "", false
	}

	password, ok := credentials["password"].(string)
	if !ok || password == "" {
		return "", "", false
	}

	return strings.ToLower(strings.TrimSpace(email)), password, true
}
