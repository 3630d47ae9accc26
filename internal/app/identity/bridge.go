// Package identity adapts the account service to the election engine's
// identity port.
package identity

import (
	"context"
	"errors"

	engineentities "ballotbox/contexts/civic-voting/election-engine/domain/entities"
	enginedomainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	engineports "ballotbox/contexts/civic-voting/election-engine/ports"
	accounterrors "ballotbox/contexts/identity-access/account-service/domain/errors"
	accountports "ballotbox/contexts/identity-access/account-service/ports"
)

type AccountDirectory struct {
	Users accountports.UserRepository
}

var _ engineports.IdentityProvider = AccountDirectory{}

func (d AccountDirectory) Principal(ctx context.Context, userID string) (engineentities.Principal, error) {
	user, err := d.Users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, accounterrors.ErrUserNotFound) {
			return engineentities.Principal{}, enginedomainerrors.NewNotFound(enginedomainerrors.EntityUser, userID)
		}
		return engineentities.Principal{}, err
	}
	return engineentities.Principal{
		UserID: user.UserID,
		Role:   engineentities.Role(user.Role),
	}, nil
}
