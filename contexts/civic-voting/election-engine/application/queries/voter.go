package queries

import (
	"context"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

// Dashboard summarises the election board from one voter's point of view.
type Dashboard struct {
	Active      int
	Upcoming    int
	Completed   int
	VotesCast   int
	OpenBallots []entities.Election
}

type VoterUseCase struct {
	Elections ports.ElectionRepository
	Votes     ports.VoteRepository
	Clock     ports.Clock
}

// UserVotes returns votes in recording order, including votes whose election
// has since been deleted.
func (uc VoterUseCase) UserVotes(ctx context.Context, userID string) ([]entities.Vote, error) {
	votes, err := uc.Votes.ListVotesByUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, application.WrapInfrastructure("list user votes", err)
	}
	return votes, nil
}

func (uc VoterUseCase) HasVoted(ctx context.Context, userID string, electionID string) (bool, error) {
	voted, err := uc.Votes.HasVoted(ctx, strings.TrimSpace(userID), strings.TrimSpace(electionID))
	if err != nil {
		return false, application.WrapInfrastructure("check vote", err)
	}
	return voted, nil
}

// CanVote reports whether the election is active and the user has no ballot
// in it yet. Unknown elections are a not-found error.
func (uc VoterUseCase) CanVote(ctx context.Context, userID string, electionID string) (bool, error) {
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return false, application.WrapInfrastructure("get election", err)
	}
	if election.StatusAt(application.Now(uc.Clock)) != entities.ElectionStatusActive {
		return false, nil
	}
	voted, err := uc.HasVoted(ctx, userID, electionID)
	if err != nil {
		return false, err
	}
	return !voted, nil
}

func (uc VoterUseCase) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	elections, err := uc.Elections.ListElections(ctx)
	if err != nil {
		return Dashboard{}, application.WrapInfrastructure("list elections", err)
	}
	votes, err := uc.UserVotes(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	voted := make(map[string]struct{}, len(votes))
	for _, vote := range votes {
		voted[vote.ElectionID] = struct{}{}
	}

	now := application.Now(uc.Clock)
	out := Dashboard{VotesCast: len(votes), OpenBallots: []entities.Election{}}
	for _, election := range elections {
		election = election.WithStatus(now)
		switch election.Status {
		case entities.ElectionStatusActive:
			out.Active++
			if _, ok := voted[election.ElectionID]; !ok {
				out.OpenBallots = append(out.OpenBallots, election)
			}
		case entities.ElectionStatusUpcoming:
			out.Upcoming++
		case entities.ElectionStatusCompleted:
			out.Completed++
		}
	}
	return out, nil
}
