package accountservice

import (
	"log/slog"
	"time"

	httpadapter "ballotbox/contexts/identity-access/account-service/adapters/http"
	"ballotbox/contexts/identity-access/account-service/adapters/memory"
	"ballotbox/contexts/identity-access/account-service/adapters/security"
	"ballotbox/contexts/identity-access/account-service/application/commands"
	"ballotbox/contexts/identity-access/account-service/application/queries"
	"ballotbox/contexts/identity-access/account-service/domain/entities"
	"ballotbox/contexts/identity-access/account-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Users   ports.UserRepository
	Store   *memory.Store
}

type Dependencies struct {
	Users  ports.UserRepository
	Hasher ports.PasswordHasher
	Tokens ports.TokenIssuer
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Auth: commands.AuthUseCase{
				Users:  deps.Users,
				Hasher: deps.Hasher,
				Tokens: deps.Tokens,
				Clock:  deps.Clock,
				IDGen:  deps.IDGen,
				Logger: deps.Logger,
			},
			Users: queries.UserQueryUseCase{
				Users:  deps.Users,
				Tokens: deps.Tokens,
				Clock:  deps.Clock,
			},
			Logger: deps.Logger,
		},
		Users: deps.Users,
	}
}

func NewInMemoryModule(seed []entities.User, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Users:  store,
		Hasher: security.BcryptHasher{},
		Tokens: security.NewJWTIssuer(jwtSecret, "ballotbox", tokenTTL),
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
