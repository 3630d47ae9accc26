package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	electionengine "ballotbox/contexts/civic-voting/election-engine"
	electionmemory "ballotbox/contexts/civic-voting/election-engine/adapters/memory"
	electionhttp "ballotbox/contexts/civic-voting/election-engine/transport/http"
	accountservice "ballotbox/contexts/identity-access/account-service"
	accountmemory "ballotbox/contexts/identity-access/account-service/adapters/memory"
	"ballotbox/contexts/identity-access/account-service/adapters/security"
	accounthttp "ballotbox/contexts/identity-access/account-service/transport/http"
	"ballotbox/internal/app/identity"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithLogger(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServerWithLogger(t *testing.T, logger *slog.Logger) *Server {
	t.Helper()
	now := time.Now()

	users, err := accountmemory.DemoUsers(security.BcryptHasher{Cost: bcrypt.MinCost}, now)
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	accounts := accountservice.NewInMemoryModule(users, "test-secret", time.Hour, logger)
	elections := electionengine.NewInMemoryModule(
		electionmemory.DemoSeed(now),
		identity.AccountDirectory{Users: accounts.Users},
		nil,
		logger,
	)
	return New(elections, accounts, logger, ":0", []string{"http://localhost:5173"})
}

func doRequest(t *testing.T, server *Server, method string, path string, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, server *Server, email string) string {
	t.Helper()
	rr := doRequest(t, server, http.MethodPost, "/v1/auth/login", "", `{"email":"`+email+`","password":"password"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d body=%s", email, rr.Code, rr.Body.String())
	}
	var resp accounthttp.AuthResponse
	decodeBody(t, rr, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rr.Code, rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rr := doRequest(t, newTestServer(t), http.MethodGet, "/healthz", "", "")
	expectStatus(t, rr, http.StatusOK)
}

func TestListElectionsIsPublicAndFiltersByStatus(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/v1/elections", "", "")
	expectStatus(t, rr, http.StatusOK)
	var all electionhttp.ElectionListResponse
	decodeBody(t, rr, &all)
	if len(all.Items) != 3 {
		t.Fatalf("expected 3 elections, got %d", len(all.Items))
	}

	rr = doRequest(t, server, http.MethodGet, "/v1/elections?status=completed", "", "")
	expectStatus(t, rr, http.StatusOK)
	var completed electionhttp.ElectionListResponse
	decodeBody(t, rr, &completed)
	if len(completed.Items) != 1 || completed.Items[0].ID != "3" {
		t.Fatalf("expected only election 3, got %+v", completed.Items)
	}

	rr = doRequest(t, server, http.MethodGet, "/v1/elections?status=paused", "", "")
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestCreateElectionRequiresBearerToken(t *testing.T) {
	server := newTestServer(t)
	body := `{"title":"T","description":"D","startDate":"2030-01-01T00:00:00Z","endDate":"2030-01-02T00:00:00Z","options":["A","B"]}`

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections", "", body), http.StatusUnauthorized)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections", "not-a-jwt", body), http.StatusUnauthorized)
}

func TestCreateElectionRequiresAdmin(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "voter1@example.com")
	body := `{"title":"T","description":"D","startDate":"2030-01-01T00:00:00Z","endDate":"2030-01-02T00:00:00Z","options":["A","B"]}`

	rr := doRequest(t, server, http.MethodPost, "/v1/elections", token, body)
	expectStatus(t, rr, http.StatusForbidden)
}

func TestAdminCreatesAndDeletesElection(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "admin@example.com")
	body := `{"title":"Office Move","description":"Pick the new office","startDate":"2030-01-01T00:00:00Z","endDate":"2030-01-02T00:00:00Z","options":["North","South"]}`

	rr := doRequest(t, server, http.MethodPost, "/v1/elections", token, body)
	expectStatus(t, rr, http.StatusCreated)
	var created electionhttp.ElectionResponse
	decodeBody(t, rr, &created)
	if created.Status != "upcoming" || len(created.Options) != 2 || created.CreatedBy != "1" {
		t.Fatalf("unexpected election %+v", created)
	}

	expectStatus(t, doRequest(t, server, http.MethodDelete, "/v1/elections/"+created.ID, token, ""), http.StatusNoContent)
	expectStatus(t, doRequest(t, server, http.MethodGet, "/v1/elections/"+created.ID, "", ""), http.StatusNotFound)
}

func TestCreateElectionReportsEveryInvalidField(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "admin@example.com")

	rr := doRequest(t, server, http.MethodPost, "/v1/elections", token, `{"options":["only"]}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	var resp electionhttp.ErrorResponse
	decodeBody(t, rr, &resp)
	for _, field := range []string{"title", "description", "startDate", "endDate", "options"} {
		if resp.Fields[field] == "" {
			t.Fatalf("expected violation on %s, got %+v", field, resp.Fields)
		}
	}
}

func TestEditElectionLocksOptionsAfterVotes(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "admin@example.com")

	rr := doRequest(t, server, http.MethodPatch, "/v1/elections/1", token, `{"options":["X","Y"]}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = doRequest(t, server, http.MethodPatch, "/v1/elections/1", token, `{"title":"Board Election"}`)
	expectStatus(t, rr, http.StatusOK)
	var updated electionhttp.ElectionResponse
	decodeBody(t, rr, &updated)
	if updated.Title != "Board Election" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
}

func TestCastVoteFlow(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "voter2@example.com")

	rr := doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", token, `{"optionId":"101"}`)
	expectStatus(t, rr, http.StatusCreated)
	var cast electionhttp.CastVoteResponse
	decodeBody(t, rr, &cast)
	if cast.Vote.UserID != "3" || cast.Election.TotalVotes != 2 {
		t.Fatalf("unexpected cast response %+v", cast)
	}

	rr = doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", token, `{"optionId":"102"}`)
	expectStatus(t, rr, http.StatusConflict)
	var dup electionhttp.ErrorResponse
	decodeBody(t, rr, &dup)
	if dup.Code != "duplicate_vote" {
		t.Fatalf("expected duplicate_vote, got %+v", dup)
	}

	rr = doRequest(t, server, http.MethodGet, "/v1/elections/1", token, "")
	expectStatus(t, rr, http.StatusOK)
	var election electionhttp.ElectionResponse
	decodeBody(t, rr, &election)
	if election.HasVoted == nil || !*election.HasVoted || election.CanVote == nil || *election.CanVote {
		t.Fatalf("expected voted state, got %+v", election)
	}
}

func TestCastVoteRejections(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "voter2@example.com")

	rr := doRequest(t, server, http.MethodPost, "/v1/elections/2/votes", token, `{"optionId":"201"}`)
	expectStatus(t, rr, http.StatusConflict)
	var state electionhttp.ErrorResponse
	decodeBody(t, rr, &state)
	if state.Code != "election_not_active" || state.Status != "upcoming" {
		t.Fatalf("unexpected error %+v", state)
	}

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", token, `{"optionId":"999"}`), http.StatusNotFound)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/404/votes", token, `{"optionId":"101"}`), http.StatusNotFound)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", token, `{"optionId":`), http.StatusBadRequest)
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", "", `{"optionId":"101"}`), http.StatusUnauthorized)
}

func TestRejectedVoteIsLoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	server := newTestServerWithLogger(t, slog.New(slog.NewTextHandler(&logs, nil)))
	token := login(t, server, "voter2@example.com")

	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/2/votes", token, `{"optionId":"201"}`), http.StatusConflict)

	if got := strings.Count(logs.String(), "vote cast rejected"); got != 1 {
		t.Fatalf("expected one rejection log line, got %d in %s", got, logs.String())
	}
	if strings.Contains(logs.String(), "layer=transport") {
		t.Fatalf("expected no transport-layer log lines, got %s", logs.String())
	}
}

func TestElectionResultsSortedByVotes(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "voter2@example.com")
	expectStatus(t, doRequest(t, server, http.MethodPost, "/v1/elections/1/votes", token, `{"optionId":"103"}`), http.StatusCreated)

	rr := doRequest(t, server, http.MethodGet, "/v1/elections/1/results?sort=votes", "", "")
	expectStatus(t, rr, http.StatusOK)
	var results electionhttp.ElectionResultsResponse
	decodeBody(t, rr, &results)
	if results.TotalVotes != 2 || results.Options[0].ID != "103" || results.Options[0].Percentage != 100 || !results.Options[0].Leading {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestVoterDashboardAndVotes(t *testing.T) {
	server := newTestServer(t)
	token := login(t, server, "voter1@example.com")

	rr := doRequest(t, server, http.MethodGet, "/v1/me/votes", token, "")
	expectStatus(t, rr, http.StatusOK)
	var votes electionhttp.VoteListResponse
	decodeBody(t, rr, &votes)
	if len(votes.Items) != 1 || votes.Items[0].ElectionID != "1" {
		t.Fatalf("unexpected votes %+v", votes)
	}

	rr = doRequest(t, server, http.MethodGet, "/v1/me/dashboard", token, "")
	expectStatus(t, rr, http.StatusOK)
	var dashboard electionhttp.DashboardResponse
	decodeBody(t, rr, &dashboard)
	if dashboard.Active != 1 || dashboard.Upcoming != 1 || dashboard.Completed != 1 || dashboard.VotesCast != 1 {
		t.Fatalf("unexpected dashboard %+v", dashboard)
	}
	if len(dashboard.OpenBallots) != 0 {
		t.Fatalf("voter1 already voted in the only active election, got %+v", dashboard.OpenBallots)
	}

	expectStatus(t, doRequest(t, server, http.MethodGet, "/v1/me/dashboard", "", ""), http.StatusUnauthorized)
}

func TestRegisterThenMe(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodPost, "/v1/auth/register", "", `{"username":"carol","email":"Carol@Example.com","password":"secret1"}`)
	expectStatus(t, rr, http.StatusCreated)
	var auth accounthttp.AuthResponse
	decodeBody(t, rr, &auth)
	if auth.User.Role != "voter" || auth.Token == "" {
		t.Fatalf("unexpected auth response %+v", auth)
	}

	rr = doRequest(t, server, http.MethodGet, "/v1/auth/me", auth.Token, "")
	expectStatus(t, rr, http.StatusOK)
	var me accounthttp.UserResponse
	decodeBody(t, rr, &me)
	if me.Email != "carol@example.com" {
		t.Fatalf("expected normalized email, got %q", me.Email)
	}

	rr = doRequest(t, server, http.MethodPost, "/v1/auth/register", "", `{"username":"carol2","email":"carol@example.com","password":"secret1"}`)
	expectStatus(t, rr, http.StatusConflict)
}

func TestRegisterValidationAndBadLogin(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodPost, "/v1/auth/register", "", `{"username":"x","email":"nope","password":"1"}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	var resp accounthttp.ErrorResponse
	decodeBody(t, rr, &resp)
	if len(resp.Fields) != 3 {
		t.Fatalf("expected three field violations, got %+v", resp.Fields)
	}

	long := strings.Repeat("p", 80)
	rr = doRequest(t, server, http.MethodPost, "/v1/auth/register", "", `{"username":"dave","email":"dave@example.com","password":"`+long+`"}`)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	resp = accounthttp.ErrorResponse{}
	decodeBody(t, rr, &resp)
	if resp.Fields["password"] != "Password must be at most 72 bytes" {
		t.Fatalf("expected password length violation, got %+v", resp.Fields)
	}

	rr = doRequest(t, server, http.MethodPost, "/v1/auth/login", "", `{"email":"admin@example.com","password":"wrong"}`)
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/elections", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q (status %d)", got, rr.Code)
	}
}
