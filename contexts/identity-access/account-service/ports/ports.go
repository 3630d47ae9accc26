package ports

import (
	"context"
	"time"

	"ballotbox/contexts/identity-access/account-service/domain/entities"
)

// UserRepository stores accounts keyed by id and normalized e-mail.
// CreateUser reports ErrEmailTaken when the e-mail is already registered.
type UserRepository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

type TokenClaims struct {
	UserID    string
	Role      entities.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(user entities.User, now time.Time) (string, time.Time, error)
	Verify(token string, now time.Time) (TokenClaims, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
