package commands

import (
	"context"
	"log/slog"
	"time"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

// ElectionUseCase orchestrates the admin-only election lifecycle: create,
// edit and delete, each followed by an outbox event.
type ElectionUseCase struct {
	Elections ports.ElectionRepository
	Identity  ports.IdentityProvider
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc ElectionUseCase) now() time.Time {
	return application.Now(uc.Clock)
}

// appendEvent records the event after the election write has been committed.
// A failure here is reported to the caller but does not undo the write.
func (uc ElectionUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	election entities.Election,
	actorID string,
	now time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newElectionEnvelope(eventID, eventType, election.ElectionID, now, electionEventData(election, actorID))
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
