package commands

import (
	"context"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
)

type DeleteElectionCommand struct {
	ActorID    string
	ElectionID string
}

// DeleteElection removes the election only. Votes stay behind as history and
// remain visible through the voter's vote list.
func (uc ElectionUseCase) DeleteElection(ctx context.Context, cmd DeleteElectionCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)

	if _, err := application.RequireAdmin(ctx, uc.Identity, cmd.ActorID, "delete_election"); err != nil {
		logger.Warn("election delete rejected",
			"event", "election_delete_rejected",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return err
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return application.WrapInfrastructure("get election", err)
	}
	if err := uc.Elections.DeleteElection(ctx, electionID); err != nil {
		logger.Warn("election delete failed",
			"event", "election_delete_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return application.WrapInfrastructure("delete election", err)
	}

	now := uc.now()
	if err := uc.appendEvent(ctx, EventElectionDeleted, election, strings.TrimSpace(cmd.ActorID), now); err != nil {
		logger.Error("election delete outbox append failed",
			"event", "election_delete_outbox_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return application.WrapInfrastructure("append election event", err)
	}
	logger.Info("election deleted",
		"event", "election_deleted",
		"module", application.Module,
		"layer", "application",
		"election_id", electionID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	return nil
}
