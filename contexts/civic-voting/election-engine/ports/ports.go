package ports

import (
	"context"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	contractsv1 "ballotbox/contracts/gen/events/v1"
)

// ElectionRepository owns election records. Implementations must make every
// write visible to all subsequent reads.
type ElectionRepository interface {
	CreateElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	// ListElections returns elections in insertion order.
	ListElections(ctx context.Context) ([]entities.Election, error)
	// UpdateElection runs mutate on the current record under the same lock
	// that guards vote recording, then persists the result.
	UpdateElection(ctx context.Context, electionID string, mutate func(*entities.Election) error) (entities.Election, error)
	DeleteElection(ctx context.Context, electionID string) error
}

// RecordVoteInput carries the vote to insert, the instant used for the status
// check and the event stored alongside the vote.
type RecordVoteInput struct {
	Vote  entities.Vote
	Now   time.Time
	Event EventEnvelope
}

// VoteRepository records votes. RecordVote checks election existence, derived
// status, option membership and (user, election) uniqueness in that order and
// applies the tally increment and the outbox append in the same atomic unit.
type VoteRepository interface {
	RecordVote(ctx context.Context, input RecordVoteInput) (entities.Election, error)
	HasVoted(ctx context.Context, userID string, electionID string) (bool, error)
	ListVotesByUser(ctx context.Context, userID string) ([]entities.Vote, error)
	ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error)
}

// IdentityProvider resolves the acting principal. Unknown users are reported
// with a not-found error.
type IdentityProvider interface {
	Principal(ctx context.Context, userID string) (entities.Principal, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
