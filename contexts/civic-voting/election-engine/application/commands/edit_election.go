package commands

import (
	"context"
	"strings"
	"time"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

// EditElectionCommand is a partial update: nil fields keep their stored value.
// Identity, authorship and status are not editable.
type EditElectionCommand struct {
	ActorID     string
	ElectionID  string
	Title       *string
	Description *string
	StartTime   *string
	EndTime     *string
	Options     *[]string
}

func (uc ElectionUseCase) EditElection(ctx context.Context, cmd EditElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	logger.Info("election edit started",
		"event", "election_edit_started",
		"module", application.Module,
		"layer", "application",
		"election_id", electionID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)

	if _, err := application.RequireAdmin(ctx, uc.Identity, cmd.ActorID, "edit_election"); err != nil {
		logger.Warn("election edit rejected",
			"event", "election_edit_rejected",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	now := uc.now()
	updated, err := uc.Elections.UpdateElection(ctx, electionID, func(election *entities.Election) error {
		return uc.applyPatch(ctx, election, cmd, now)
	})
	if err != nil {
		logger.Warn("election edit failed",
			"event", "election_edit_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Election{}, application.WrapInfrastructure("update election", err)
	}
	if err := uc.appendEvent(ctx, EventElectionUpdated, updated, strings.TrimSpace(cmd.ActorID), now); err != nil {
		logger.Error("election edit outbox append failed",
			"event", "election_edit_outbox_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Election{}, application.WrapInfrastructure("append election event", err)
	}

	logger.Info("election edited",
		"event", "election_edited",
		"module", application.Module,
		"layer", "application",
		"election_id", electionID,
	)
	return updated.WithStatus(now), nil
}

// applyPatch runs inside the repository's write lock, so the options check
// sees the same tally that concurrent votes are applied to.
func (uc ElectionUseCase) applyPatch(
	ctx context.Context,
	election *entities.Election,
	cmd EditElectionCommand,
	now time.Time,
) error {
	verr := domainerrors.NewValidationError()
	fields := entities.ElectionFields{
		Title:       election.Title,
		Description: election.Description,
		StartTime:   election.StartTime,
		EndTime:     election.EndTime,
	}
	if cmd.Title != nil {
		fields.Title = *cmd.Title
	}
	if cmd.Description != nil {
		fields.Description = *cmd.Description
	}
	if cmd.StartTime != nil {
		fields.StartTime = entities.ParseInstantField(*cmd.StartTime, domainerrors.FieldStartDate, "Start date", verr)
	}
	if cmd.EndTime != nil {
		fields.EndTime = entities.ParseInstantField(*cmd.EndTime, domainerrors.FieldEndDate, "End date", verr)
	}
	if cmd.Options != nil {
		if election.TotalVotes > 0 {
			verr.Add(domainerrors.FieldOptions, "Options cannot be changed after votes have been cast")
		}
		fields.Options = *cmd.Options
	} else {
		for _, option := range election.Options {
			fields.Options = append(fields.Options, option.Text)
		}
	}

	fields = entities.ValidateElectionFields(fields, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	election.Title = fields.Title
	election.Description = fields.Description
	election.StartTime = fields.StartTime
	election.EndTime = fields.EndTime
	if cmd.Options != nil {
		options := make([]entities.Option, 0, len(fields.Options))
		for i, text := range fields.Options {
			option := entities.Option{Text: text}
			if i < len(election.Options) {
				option.OptionID = election.Options[i].OptionID
			} else {
				optionID, err := uc.IDGen.NewID(ctx)
				if err != nil {
					return err
				}
				option.OptionID = optionID
			}
			options = append(options, option)
		}
		election.Options = options
	}
	election.UpdatedAt = now
	return nil
}
