package electionengine

import (
	"log/slog"

	httpadapter "ballotbox/contexts/civic-voting/election-engine/adapters/http"
	"ballotbox/contexts/civic-voting/election-engine/adapters/memory"
	"ballotbox/contexts/civic-voting/election-engine/application/commands"
	"ballotbox/contexts/civic-voting/election-engine/application/queries"
	"ballotbox/contexts/civic-voting/election-engine/application/workers"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	OutboxRelay workers.OutboxRelay
	// Audit has its repositories set; callers supply the subscriber.
	Audit workers.AuditConsumer
	Store *memory.Store
}

type Dependencies struct {
	Elections       ports.ElectionRepository
	Votes           ports.VoteRepository
	Identity        ports.IdentityProvider
	Outbox          ports.OutboxWriter
	OutboxReader    ports.OutboxRepository
	Publisher       ports.EventPublisher
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	electionUseCase := commands.ElectionUseCase{
		Elections: deps.Elections,
		Identity:  deps.Identity,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Votes:  deps.Votes,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Elections: electionUseCase,
			Votes:     voteUseCase,
			ElectionReads: queries.ElectionQueryUseCase{
				Elections: deps.Elections,
				Clock:     deps.Clock,
			},
			Results: queries.ResultsUseCase{
				Elections: deps.Elections,
				Clock:     deps.Clock,
			},
			Voters: queries.VoterUseCase{
				Elections: deps.Elections,
				Votes:     deps.Votes,
				Clock:     deps.Clock,
			},
			Logger: deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxReader,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Audit: workers.AuditConsumer{
			Elections: deps.Elections,
			Votes:     deps.Votes,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one memory store. Publisher may be nil
// when the caller never runs the relay.
func NewInMemoryModule(
	seed memory.Seed,
	identity ports.IdentityProvider,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Elections:    store,
		Votes:        store,
		Identity:     identity,
		Outbox:       store,
		OutboxReader: store,
		Publisher:    publisher,
		Clock:        store,
		IDGen:        store,
		Logger:       logger,
	})
	module.Store = store
	return module
}
