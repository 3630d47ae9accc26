package commands

import (
	"context"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

// CreateElectionCommand carries raw form input. Instants are parsed here so
// malformed dates are reported alongside every other field violation.
type CreateElectionCommand struct {
	ActorID     string
	Title       string
	Description string
	StartTime   string
	EndTime     string
	Options     []string
}

func (uc ElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("election create started",
		"event", "election_create_started",
		"module", application.Module,
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)

	if _, err := application.RequireAdmin(ctx, uc.Identity, cmd.ActorID, "create_election"); err != nil {
		logger.Warn("election create rejected",
			"event", "election_create_rejected",
			"module", application.Module,
			"layer", "application",
			"actor_id", strings.TrimSpace(cmd.ActorID),
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	verr := domainerrors.NewValidationError()
	fields := entities.ElectionFields{
		Title:       cmd.Title,
		Description: cmd.Description,
		StartTime:   entities.ParseInstantField(cmd.StartTime, domainerrors.FieldStartDate, "Start date", verr),
		EndTime:     entities.ParseInstantField(cmd.EndTime, domainerrors.FieldEndDate, "End date", verr),
		Options:     cmd.Options,
	}
	fields = entities.ValidateElectionFields(fields, verr)
	if err := verr.OrNil(); err != nil {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", application.Module,
			"layer", "application",
			"actor_id", strings.TrimSpace(cmd.ActorID),
			"fields", verr.Fields,
		)
		return entities.Election{}, err
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, application.WrapInfrastructure("generate election id", err)
	}
	options := make([]entities.Option, 0, len(fields.Options))
	for _, text := range fields.Options {
		optionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Election{}, application.WrapInfrastructure("generate option id", err)
		}
		options = append(options, entities.Option{OptionID: optionID, Text: text})
	}

	now := uc.now()
	election := entities.Election{
		ElectionID:  electionID,
		Title:       fields.Title,
		Description: fields.Description,
		StartTime:   fields.StartTime,
		EndTime:     fields.EndTime,
		CreatedBy:   strings.TrimSpace(cmd.ActorID),
		CreatedAt:   now,
		UpdatedAt:   now,
		Options:     options,
	}
	if err := uc.Elections.CreateElection(ctx, election); err != nil {
		logger.Error("election create persist failed",
			"event", "election_create_persist_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Election{}, application.WrapInfrastructure("create election", err)
	}
	if err := uc.appendEvent(ctx, EventElectionCreated, election, election.CreatedBy, now); err != nil {
		logger.Error("election create outbox append failed",
			"event", "election_create_outbox_failed",
			"module", application.Module,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.Election{}, application.WrapInfrastructure("append election event", err)
	}

	logger.Info("election created",
		"event", "election_created",
		"module", application.Module,
		"layer", "application",
		"election_id", electionID,
		"actor_id", election.CreatedBy,
		"option_count", len(options),
	)
	return election.WithStatus(now), nil
}
