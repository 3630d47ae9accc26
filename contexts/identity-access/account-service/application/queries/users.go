package queries

import (
	"context"
	"strings"

	application "ballotbox/contexts/identity-access/account-service/application"
	"ballotbox/contexts/identity-access/account-service/domain/entities"
	"ballotbox/contexts/identity-access/account-service/ports"
)

type UserQueryUseCase struct {
	Users  ports.UserRepository
	Tokens ports.TokenIssuer
	Clock  ports.Clock
}

func (uc UserQueryUseCase) GetUser(ctx context.Context, userID string) (entities.User, error) {
	return uc.Users.GetUser(ctx, strings.TrimSpace(userID))
}

// VerifyToken returns the subject of a valid, unexpired token.
func (uc UserQueryUseCase) VerifyToken(_ context.Context, token string) (string, error) {
	claims, err := uc.Tokens.Verify(strings.TrimSpace(token), application.Now(uc.Clock))
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
