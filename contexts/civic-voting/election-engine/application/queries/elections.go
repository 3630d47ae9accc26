package queries

import (
	"context"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

// ListElectionsFilter composes with AND. Zero values match everything.
type ListElectionsFilter struct {
	Status     entities.ElectionStatus
	SearchText string
}

type ElectionQueryUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
}

func (uc ElectionQueryUseCase) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, application.WrapInfrastructure("get election", err)
	}
	return election.WithStatus(application.Now(uc.Clock)), nil
}

// ListElections keeps repository insertion order.
func (uc ElectionQueryUseCase) ListElections(ctx context.Context, filter ListElectionsFilter) ([]entities.Election, error) {
	status := entities.ElectionStatus(strings.ToLower(strings.TrimSpace(string(filter.Status))))
	if status != "" && !status.Valid() {
		verr := domainerrors.NewValidationError()
		verr.Add(domainerrors.FieldStatus, "Status must be one of upcoming, active, completed")
		return nil, verr
	}
	search := strings.ToLower(strings.TrimSpace(filter.SearchText))

	elections, err := uc.Elections.ListElections(ctx)
	if err != nil {
		return nil, application.WrapInfrastructure("list elections", err)
	}
	now := application.Now(uc.Clock)
	out := make([]entities.Election, 0, len(elections))
	for _, election := range elections {
		election = election.WithStatus(now)
		if status != "" && election.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(election.Title), search) &&
			!strings.Contains(strings.ToLower(election.Description), search) {
			continue
		}
		out = append(out, election)
	}
	return out, nil
}
