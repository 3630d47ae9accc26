package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

const Module = "civic-voting/election-engine"

// Now reads the injected clock, falling back to wall time.
func Now(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

// WrapInfrastructure passes domain errors through and wraps anything else once.
func WrapInfrastructure(op string, err error) error {
	if err == nil || domainerrors.IsDomain(err) {
		return err
	}
	return &domainerrors.InfrastructureError{Op: op, Err: err}
}

// RequireAdmin resolves actorID through the identity provider. Unknown users
// and non-admin roles are forbidden; lookup failures surface as infrastructure.
func RequireAdmin(
	ctx context.Context,
	identity ports.IdentityProvider,
	actorID string,
	action string,
) (entities.Principal, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return entities.Principal{}, &domainerrors.ForbiddenError{Action: action}
	}
	if identity == nil {
		return entities.Principal{}, &domainerrors.InfrastructureError{
			Op:  "identity lookup",
			Err: errors.New("identity provider is not configured"),
		}
	}
	principal, err := identity.Principal(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return entities.Principal{}, &domainerrors.ForbiddenError{ActorID: actorID, Action: action}
		}
		return entities.Principal{}, &domainerrors.InfrastructureError{Op: "identity lookup", Err: err}
	}
	if !principal.IsAdmin() {
		return entities.Principal{}, &domainerrors.ForbiddenError{ActorID: actorID, Action: action}
	}
	return principal, nil
}
