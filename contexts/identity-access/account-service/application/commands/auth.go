package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "ballotbox/contexts/identity-access/account-service/application"
	"ballotbox/contexts/identity-access/account-service/domain/entities"
	domainerrors "ballotbox/contexts/identity-access/account-service/domain/errors"
	"ballotbox/contexts/identity-access/account-service/ports"
)

type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

type LoginCommand struct {
	Email    string
	Password string
}

// AuthResult is returned by both register and login.
type AuthResult struct {
	User      entities.User
	Token     string
	ExpiresAt time.Time
}

type AuthUseCase struct {
	Users  ports.UserRepository
	Hasher ports.PasswordHasher
	Tokens ports.TokenIssuer
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Register creates a voter account. Admins are only ever seeded.
func (uc AuthUseCase) Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	email := entities.NormalizeEmail(cmd.Email)
	if err := entities.ValidateRegistration(cmd.Username, strings.TrimSpace(cmd.Email), cmd.Password); err != nil {
		logger.Warn("account register validation failed",
			"event", "account_register_validation_failed",
			"module", application.Module,
			"layer", "application",
			"email", email,
		)
		return AuthResult{}, err
	}

	hash, err := uc.Hasher.Hash(cmd.Password)
	if err != nil {
		return AuthResult{}, err
	}
	userID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return AuthResult{}, err
	}
	now := application.Now(uc.Clock)
	user := entities.User{
		UserID:       userID,
		Username:     strings.TrimSpace(cmd.Username),
		Email:        email,
		Role:         entities.RoleVoter,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := uc.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrEmailTaken) {
			logger.Warn("account register email taken",
				"event", "account_register_email_taken",
				"module", application.Module,
				"layer", "application",
				"email", email,
			)
		}
		return AuthResult{}, err
	}

	token, expiresAt, err := uc.Tokens.Issue(user, now)
	if err != nil {
		return AuthResult{}, err
	}
	logger.Info("account registered",
		"event", "account_registered",
		"module", application.Module,
		"layer", "application",
		"user_id", user.UserID,
	)
	return AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login does not reveal whether the e-mail or the password was wrong.
func (uc AuthUseCase) Login(ctx context.Context, cmd LoginCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	email := entities.NormalizeEmail(cmd.Email)
	user, err := uc.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			logger.Warn("account login rejected",
				"event", "account_login_rejected",
				"module", application.Module,
				"layer", "application",
				"email", email,
			)
			return AuthResult{}, domainerrors.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if err := uc.Hasher.Compare(user.PasswordHash, cmd.Password); err != nil {
		logger.Warn("account login rejected",
			"event", "account_login_rejected",
			"module", application.Module,
			"layer", "application",
			"email", email,
		)
		return AuthResult{}, domainerrors.ErrInvalidCredentials
	}

	token, expiresAt, err := uc.Tokens.Issue(user, application.Now(uc.Clock))
	if err != nil {
		return AuthResult{}, err
	}
	logger.Info("account logged in",
		"event", "account_logged_in",
		"module", application.Module,
		"layer", "application",
		"user_id", user.UserID,
	)
	return AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
