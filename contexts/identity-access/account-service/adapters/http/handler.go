package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"ballotbox/contexts/identity-access/account-service/application/commands"
	"ballotbox/contexts/identity-access/account-service/application/queries"
	"ballotbox/contexts/identity-access/account-service/domain/entities"
	httptransport "ballotbox/contexts/identity-access/account-service/transport/http"
)

type Handler struct {
	Auth   commands.AuthUseCase
	Users  queries.UserQueryUseCase
	Logger *slog.Logger
}

// RegisterHandler godoc
// @Summary Register a voter account
// @Tags account-service
// @Accept json
// @Produce json
// @Param request body httptransport.RegisterRequest true "Account"
// @Success 201 {object} httptransport.AuthResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/auth/register [post]
func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.AuthResponse, error) {
	result, err := h.Auth.Register(ctx, commands.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return mapAuth(result), nil
}

// LoginHandler godoc
// @Summary Log in
// @Tags account-service
// @Accept json
// @Produce json
// @Param request body httptransport.LoginRequest true "Credentials"
// @Success 200 {object} httptransport.AuthResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /v1/auth/login [post]
func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.AuthResponse, error) {
	result, err := h.Auth.Login(ctx, commands.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return mapAuth(result), nil
}

func (h Handler) MeHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	user, err := h.Users.GetUser(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return mapUser(user), nil
}

// Authenticate resolves a bearer token to its user id.
func (h Handler) Authenticate(ctx context.Context, token string) (string, error) {
	return h.Users.VerifyToken(ctx, token)
}

func mapAuth(result commands.AuthResult) httptransport.AuthResponse {
	return httptransport.AuthResponse{
		User:      mapUser(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func mapUser(user entities.User) httptransport.UserResponse {
	return httptransport.UserResponse{
		ID:        user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
