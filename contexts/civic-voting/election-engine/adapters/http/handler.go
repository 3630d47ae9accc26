package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/application/commands"
	"ballotbox/contexts/civic-voting/election-engine/application/queries"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	httptransport "ballotbox/contexts/civic-voting/election-engine/transport/http"
)

type Handler struct {
	Elections     commands.ElectionUseCase
	Votes         commands.VoteUseCase
	ElectionReads queries.ElectionQueryUseCase
	Results       queries.ResultsUseCase
	Voters        queries.VoterUseCase
	Logger        *slog.Logger
}

// CreateElectionHandler godoc
// @Summary Create an election
// @Description Admin only. Every invalid field is reported at once.
// @Tags election-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateElectionRequest true "Election"
// @Success 201 {object} httptransport.ElectionResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/elections [post]
func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actorID string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.CreateElection(ctx, commands.CreateElectionCommand{
		ActorID:     actorID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartDate,
		EndTime:     req.EndDate,
		Options:     req.Options,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

// UpdateElectionHandler godoc
// @Summary Edit an election
// @Description Admin only. Options are locked once any vote exists.
// @Tags election-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param election_id path string true "Election id"
// @Param request body httptransport.UpdateElectionRequest true "Fields to change"
// @Success 200 {object} httptransport.ElectionResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id} [patch]
func (h Handler) UpdateElectionHandler(
	ctx context.Context,
	actorID string,
	electionID string,
	req httptransport.UpdateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.EditElection(ctx, commands.EditElectionCommand{
		ActorID:     actorID,
		ElectionID:  electionID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartDate,
		EndTime:     req.EndDate,
		Options:     req.Options,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) DeleteElectionHandler(ctx context.Context, actorID string, electionID string) error {
	return h.Elections.DeleteElection(ctx, commands.DeleteElectionCommand{
		ActorID:    actorID,
		ElectionID: electionID,
	})
}

// GetElectionHandler adds the caller's voting state when userID is known.
func (h Handler) GetElectionHandler(
	ctx context.Context,
	userID string,
	electionID string,
) (httptransport.ElectionResponse, error) {
	election, err := h.ElectionReads.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	resp := mapElection(election)
	if strings.TrimSpace(userID) == "" {
		return resp, nil
	}
	voted, err := h.Voters.HasVoted(ctx, userID, election.ElectionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	canVote := !voted && election.Status == entities.ElectionStatusActive
	resp.HasVoted = &voted
	resp.CanVote = &canVote
	return resp, nil
}

func (h Handler) ListElectionsHandler(
	ctx context.Context,
	status string,
	searchText string,
) (httptransport.ElectionListResponse, error) {
	elections, err := h.ElectionReads.ListElections(ctx, queries.ListElectionsFilter{
		Status:     entities.ElectionStatus(status),
		SearchText: searchText,
	})
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	return httptransport.ElectionListResponse{Items: mapElections(elections)}, nil
}

// CastVoteHandler godoc
// @Summary Cast a vote
// @Tags election-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param election_id path string true "Election id"
// @Param request body httptransport.CastVoteRequest true "Chosen option"
// @Success 201 {object} httptransport.CastVoteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/votes [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	electionID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		UserID:     userID,
		ElectionID: electionID,
		OptionID:   req.OptionID,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		Vote:     mapVote(result.Vote),
		Election: mapElection(result.Election),
	}, nil
}

// ElectionResultsHandler godoc
// @Summary Election results
// @Description Options keep creation order unless sort=votes.
// @Tags election-engine
// @Produce json
// @Param election_id path string true "Election id"
// @Param sort query string false "votes"
// @Success 200 {object} httptransport.ElectionResultsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/elections/{election_id}/results [get]
func (h Handler) ElectionResultsHandler(
	ctx context.Context,
	electionID string,
	sort string,
) (httptransport.ElectionResultsResponse, error) {
	order := queries.ResultsOrderInsertion
	if strings.EqualFold(strings.TrimSpace(sort), string(queries.ResultsOrderVotes)) {
		order = queries.ResultsOrderVotes
	}
	results, err := h.Results.ElectionResults(ctx, electionID, order)
	if err != nil {
		return httptransport.ElectionResultsResponse{}, err
	}
	items := make([]httptransport.OptionResultResponse, 0, len(results.Options))
	for _, option := range results.Options {
		items = append(items, httptransport.OptionResultResponse{
			ID:         option.OptionID,
			Text:       option.Text,
			Votes:      option.Votes,
			Percentage: option.Percentage,
			Leading:    option.Leading,
		})
	}
	return httptransport.ElectionResultsResponse{
		ElectionID: results.ElectionID,
		Title:      results.Title,
		Status:     string(results.Status),
		TotalVotes: results.TotalVotes,
		Options:    items,
	}, nil
}

func (h Handler) UserVotesHandler(ctx context.Context, userID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Voters.UserVotes(ctx, userID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) DashboardHandler(ctx context.Context, userID string) (httptransport.DashboardResponse, error) {
	dashboard, err := h.Voters.Dashboard(ctx, userID)
	if err != nil {
		return httptransport.DashboardResponse{}, err
	}
	return httptransport.DashboardResponse{
		Active:      dashboard.Active,
		Upcoming:    dashboard.Upcoming,
		Completed:   dashboard.Completed,
		VotesCast:   dashboard.VotesCast,
		OpenBallots: mapElections(dashboard.OpenBallots),
	}, nil
}

func mapElections(elections []entities.Election) []httptransport.ElectionResponse {
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, mapElection(election))
	}
	return items
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	options := make([]httptransport.OptionResponse, 0, len(election.Options))
	for _, option := range election.Options {
		options = append(options, httptransport.OptionResponse{
			ID:    option.OptionID,
			Text:  option.Text,
			Votes: option.Votes,
		})
	}
	return httptransport.ElectionResponse{
		ID:          election.ElectionID,
		Title:       election.Title,
		Description: election.Description,
		StartDate:   formatInstant(election.StartTime),
		EndDate:     formatInstant(election.EndTime),
		Status:      string(election.Status),
		CreatedBy:   election.CreatedBy,
		CreatedAt:   formatInstant(election.CreatedAt),
		UpdatedAt:   formatInstant(election.UpdatedAt),
		Options:     options,
		TotalVotes:  election.TotalVotes,
	}
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		ID:         vote.VoteID,
		UserID:     vote.UserID,
		ElectionID: vote.ElectionID,
		OptionID:   vote.OptionID,
		Timestamp:  formatInstant(vote.Timestamp),
	}
}

func formatInstant(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
