package commands

import (
	"context"
	"log/slog"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

type CastVoteCommand struct {
	UserID     string
	ElectionID string
	OptionID   string
}

// CastVoteResult returns the recorded vote and the election tally it produced.
type CastVoteResult struct {
	Vote     entities.Vote
	Election entities.Election
}

// VoteUseCase records ballots. All precondition checks run inside the
// repository's atomic unit so concurrent casts for one voter cannot both win.
type VoteUseCase struct {
	Votes  ports.VoteRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	optionID := strings.TrimSpace(cmd.OptionID)
	logger.Info("vote cast started",
		"event", "election_vote_cast_started",
		"module", application.Module,
		"layer", "application",
		"user_id", userID,
		"election_id", electionID,
		"option_id", optionID,
	)

	if userID == "" {
		verr := domainerrors.NewValidationError()
		verr.Add(domainerrors.FieldUserID, "User is required")
		return CastVoteResult{}, verr
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, application.WrapInfrastructure("generate vote id", err)
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, application.WrapInfrastructure("generate event id", err)
	}
	now := application.Now(uc.Clock)
	vote := entities.Vote{
		VoteID:     voteID,
		UserID:     userID,
		ElectionID: electionID,
		OptionID:   optionID,
		Timestamp:  now,
	}
	envelope, err := newElectionEnvelope(eventID, EventVoteCast, electionID, now, map[string]any{
		"vote_id":     voteID,
		"user_id":     userID,
		"election_id": electionID,
		"option_id":   optionID,
	})
	if err != nil {
		return CastVoteResult{}, application.WrapInfrastructure("encode vote event", err)
	}

	election, err := uc.Votes.RecordVote(ctx, ports.RecordVoteInput{
		Vote:  vote,
		Now:   now,
		Event: envelope,
	})
	if err != nil {
		logger.Warn("vote cast rejected",
			"event", "election_vote_cast_rejected",
			"module", application.Module,
			"layer", "application",
			"user_id", userID,
			"election_id", electionID,
			"option_id", optionID,
			"error", err.Error(),
		)
		return CastVoteResult{}, application.WrapInfrastructure("record vote", err)
	}

	logger.Info("vote cast recorded",
		"event", "election_vote_cast_recorded",
		"module", application.Module,
		"layer", "application",
		"vote_id", voteID,
		"user_id", userID,
		"election_id", electionID,
		"option_id", optionID,
		"total_votes", election.TotalVotes,
	)
	return CastVoteResult{Vote: vote, Election: election.WithStatus(now)}, nil
}
