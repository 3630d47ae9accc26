package httpserver

import (
	"errors"
	"net/http"

	electiondomainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	electionhttp "ballotbox/contexts/civic-voting/election-engine/transport/http"
)

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context(), query.Get("status"), query.Get("q"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req electionhttp.CreateElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), userID, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetElection serves anonymous callers too; a bearer token, when sent,
// must be valid and adds the caller's voting state.
func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil && !errors.Is(err, errMissingToken) {
		writeAccountError(w, http.StatusUnauthorized, "unauthorized", "valid bearer token is required")
		return
	}
	resp, err := s.elections.Handler.GetElectionHandler(r.Context(), userID, r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req electionhttp.UpdateElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.UpdateElectionHandler(r.Context(), userID, r.PathValue("election_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.elections.Handler.DeleteElectionHandler(r.Context(), userID, r.PathValue("election_id")); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req electionhttp.CastVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.elections.Handler.CastVoteHandler(r.Context(), userID, r.PathValue("election_id"), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleElectionResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ElectionResultsHandler(
		r.Context(),
		r.PathValue("election_id"),
		r.URL.Query().Get("sort"),
	)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserVotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.UserVotesHandler(r.Context(), userID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.elections.Handler.DashboardHandler(r.Context(), userID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	var (
		verr  *electiondomainerrors.ValidationError
		state *electiondomainerrors.InvalidStateError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, electionhttp.ErrorResponse{
			Code:    "validation_failed",
			Message: "request has invalid fields",
			Fields:  verr.Fields,
		})
	case errors.Is(err, electiondomainerrors.ErrNotFound):
		writeElectionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &state):
		writeJSON(w, http.StatusConflict, electionhttp.ErrorResponse{
			Code:    "election_not_active",
			Message: err.Error(),
			Status:  state.Status,
		})
	case errors.Is(err, electiondomainerrors.ErrDuplicateVote):
		writeElectionError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, electiondomainerrors.ErrForbidden):
		writeElectionError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
