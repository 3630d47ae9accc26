package queries

import (
	"context"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

type ResultsOrder string

const (
	ResultsOrderInsertion ResultsOrder = ""
	ResultsOrderVotes     ResultsOrder = "votes"
)

type ResultsUseCase struct {
	Elections ports.ElectionRepository
	Clock     ports.Clock
}

func (uc ResultsUseCase) ElectionResults(
	ctx context.Context,
	electionID string,
	order ResultsOrder,
) (entities.ElectionResults, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.ElectionResults{}, application.WrapInfrastructure("get election", err)
	}
	results := entities.TallyResults(election.WithStatus(application.Now(uc.Clock)))
	if order == ResultsOrderVotes {
		results = results.SortedByVotes()
	}
	return results, nil
}
