package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/adapters/memory"
	"ballotbox/contexts/civic-voting/election-engine/application/commands"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type stubIdentity map[string]entities.Role

func (s stubIdentity) Principal(_ context.Context, userID string) (entities.Principal, error) {
	role, ok := s[userID]
	if !ok {
		return entities.Principal{}, domainerrors.NewNotFound(domainerrors.EntityUser, userID)
	}
	return entities.Principal{UserID: userID, Role: role}, nil
}

type failingIdentity struct{}

func (failingIdentity) Principal(context.Context, string) (entities.Principal, error) {
	return entities.Principal{}, errors.New("identity service unavailable")
}

var identities = stubIdentity{
	memory.DemoAdminID:  entities.RoleAdmin,
	memory.DemoVoter1ID: entities.RoleVoter,
	memory.DemoVoter2ID: entities.RoleVoter,
}

func newUseCases(store *memory.Store) (commands.ElectionUseCase, commands.VoteUseCase) {
	clock := fixedClock{at: now}
	elections := commands.ElectionUseCase{
		Elections: store,
		Identity:  identities,
		Outbox:    store,
		Clock:     clock,
		IDGen:     store,
	}
	votes := commands.VoteUseCase{
		Votes: store,
		Clock: clock,
		IDGen: store,
	}
	return elections, votes
}

func validCreate() commands.CreateElectionCommand {
	return commands.CreateElectionCommand{
		ActorID:     memory.DemoAdminID,
		Title:       "  Office Snacks  ",
		Description: "Pick the snack for next month",
		StartTime:   now.Add(-time.Hour).Format(time.RFC3339),
		EndTime:     now.Add(48 * time.Hour).Format(time.RFC3339),
		Options:     []string{"Fruit", " Chips "},
	}
}

func TestCreateElectionAssignsIdsAndDerivesStatus(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	elections, _ := newUseCases(store)

	election, err := elections.CreateElection(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if election.ElectionID == "" || election.Title != "Office Snacks" {
		t.Fatalf("unexpected election %+v", election)
	}
	if election.Status != entities.ElectionStatusActive {
		t.Fatalf("expected active status, got %s", election.Status)
	}
	if len(election.Options) != 2 || election.Options[1].Text != "Chips" || election.Options[0].OptionID == election.Options[1].OptionID {
		t.Fatalf("expected two distinct trimmed options, got %+v", election.Options)
	}
	if election.TotalVotes != 0 || election.CreatedBy != memory.DemoAdminID {
		t.Fatalf("unexpected tally or author %+v", election)
	}

	future := validCreate()
	future.StartTime = now.Add(time.Hour).Format(time.RFC3339)
	upcoming, err := elections.CreateElection(context.Background(), future)
	if err != nil {
		t.Fatalf("create upcoming failed: %v", err)
	}
	if upcoming.Status != entities.ElectionStatusUpcoming {
		t.Fatalf("expected upcoming status, got %s", upcoming.Status)
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 2 || pending[0].EventType != commands.EventElectionCreated {
		t.Fatalf("expected two election.created events, got %+v", pending)
	}
}

func TestCreateElectionReturnsEveryFieldViolation(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	elections, _ := newUseCases(store)

	_, err := elections.CreateElection(context.Background(), commands.CreateElectionCommand{
		ActorID:   memory.DemoAdminID,
		StartTime: "2026-03-12T10:00",
		EndTime:   "2026-03-11T10:00",
		Options:   []string{"one"},
	})
	var verr *domainerrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{
		domainerrors.FieldTitle,
		domainerrors.FieldDescription,
		domainerrors.FieldEndDate,
		domainerrors.FieldOptions,
	} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s violation, got %v", field, verr.Fields)
		}
	}
	if _, ok := verr.Fields[domainerrors.FieldStartDate]; ok {
		t.Fatalf("start date is valid, got %v", verr.Fields)
	}
	list, _ := store.ListElections(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(list))
	}
}

func TestCreateElectionRequiresAdmin(t *testing.T) {
	store := memory.NewStore(memory.Seed{})
	elections, _ := newUseCases(store)

	cmd := validCreate()
	cmd.ActorID = memory.DemoVoter1ID
	if _, err := elections.CreateElection(context.Background(), cmd); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for voter, got %v", err)
	}
	cmd.ActorID = "ghost"
	if _, err := elections.CreateElection(context.Background(), cmd); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for unknown user, got %v", err)
	}

	elections.Identity = failingIdentity{}
	cmd.ActorID = memory.DemoAdminID
	if _, err := elections.CreateElection(context.Background(), cmd); !errors.Is(err, domainerrors.ErrInfrastructure) {
		t.Fatalf("expected infrastructure error on identity failure, got %v", err)
	}
}

func TestEditElectionRevalidatesAndKeepsIdentity(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	elections, _ := newUseCases(store)
	ctx := context.Background()

	badEnd := now.Add(-30 * 24 * time.Hour).Format(time.RFC3339)
	_, err := elections.EditElection(ctx, commands.EditElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "2",
		EndTime:    &badEnd,
	})
	var verr *domainerrors.ValidationError
	if !errors.As(err, &verr) || verr.Fields[domainerrors.FieldEndDate] == "" {
		t.Fatalf("expected end date violation, got %v", err)
	}

	title := "Annual Budget Approval 2027"
	options := []string{"Approve", "Reject"}
	updated, err := elections.EditElection(ctx, commands.EditElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "2",
		Title:      &title,
		Options:    &options,
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if updated.Title != title || updated.ElectionID != "2" || updated.CreatedBy != memory.DemoAdminID {
		t.Fatalf("unexpected edit result %+v", updated)
	}
	if len(updated.Options) != 2 || updated.Options[0].OptionID != "201" {
		t.Fatalf("expected option ids reused by position, got %+v", updated.Options)
	}
	if updated.Status != entities.ElectionStatusUpcoming {
		t.Fatalf("expected derived upcoming status, got %s", updated.Status)
	}

	if _, err := elections.EditElection(ctx, commands.EditElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "missing",
		Title:      &title,
	}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEditElectionLocksOptionsOnceVotesExist(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	elections, _ := newUseCases(store)

	options := []string{"Jane Smith", "John Doe"}
	_, err := elections.EditElection(context.Background(), commands.EditElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "1",
		Options:    &options,
	})
	var verr *domainerrors.ValidationError
	if !errors.As(err, &verr) || verr.Fields[domainerrors.FieldOptions] == "" {
		t.Fatalf("expected options violation, got %v", err)
	}
	election, _ := store.GetElection(context.Background(), "1")
	if len(election.Options) != 3 || election.TotalVotes != 1 {
		t.Fatalf("expected election untouched, got %+v", election)
	}

	description := "Updated description"
	if _, err := elections.EditElection(context.Background(), commands.EditElectionCommand{
		ActorID:     memory.DemoAdminID,
		ElectionID:  "1",
		Description: &description,
	}); err != nil {
		t.Fatalf("expected description edit to pass, got %v", err)
	}
}

func TestDeleteElectionRequiresAdminAndKeepsVotes(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	elections, _ := newUseCases(store)
	ctx := context.Background()

	if err := elections.DeleteElection(ctx, commands.DeleteElectionCommand{
		ActorID:    memory.DemoVoter1ID,
		ElectionID: "1",
	}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := elections.DeleteElection(ctx, commands.DeleteElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "1",
	}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := elections.DeleteElection(ctx, commands.DeleteElectionCommand{
		ActorID:    memory.DemoAdminID,
		ElectionID: "1",
	}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	votes, _ := store.ListVotesByUser(ctx, memory.DemoVoter1ID)
	if len(votes) != 1 {
		t.Fatalf("expected vote history kept, got %d", len(votes))
	}
}

func TestCastVoteScenarios(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	_, votes := newUseCases(store)
	ctx := context.Background()

	result, err := votes.CastVote(ctx, commands.CastVoteCommand{UserID: "7", ElectionID: "1", OptionID: "101"})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if result.Vote.VoteID == "" || !result.Vote.Timestamp.Equal(now) {
		t.Fatalf("unexpected vote %+v", result.Vote)
	}
	if result.Election.TotalVotes != 2 || result.Election.Status != entities.ElectionStatusActive {
		t.Fatalf("unexpected election after vote %+v", result.Election)
	}

	_, err = votes.CastVote(ctx, commands.CastVoteCommand{UserID: "7", ElectionID: "1", OptionID: "102"})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	_, err = votes.CastVote(ctx, commands.CastVoteCommand{UserID: "7", ElectionID: "2", OptionID: "201"})
	var stateErr *domainerrors.InvalidStateError
	if !errors.As(err, &stateErr) || stateErr.Status != "upcoming" {
		t.Fatalf("expected upcoming invalid state, got %v", err)
	}
	upcoming, _ := store.GetElection(ctx, "2")
	if upcoming.TotalVotes != 0 {
		t.Fatalf("expected upcoming tallies unchanged, got %d", upcoming.TotalVotes)
	}

	_, err = votes.CastVote(ctx, commands.CastVoteCommand{UserID: "8", ElectionID: "1", OptionID: "301"})
	var notFound *domainerrors.NotFoundError
	if !errors.As(err, &notFound) || notFound.Entity != domainerrors.EntityOption {
		t.Fatalf("expected option not found, got %v", err)
	}

	_, err = votes.CastVote(ctx, commands.CastVoteCommand{UserID: "8", ElectionID: "3", OptionID: "301"})
	if !errors.As(err, &stateErr) || stateErr.Status != "completed" {
		t.Fatalf("expected completed invalid state, got %v", err)
	}

	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 || pending[0].EventType != commands.EventVoteCast {
		t.Fatalf("expected one vote.cast event, got %+v", pending)
	}
}

func TestCastVoteConcurrentSameVoter(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	_, votes := newUseCases(store)
	const attempts = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := "101"
			if i%2 == 0 {
				option = "102"
			}
			_, err := votes.CastVote(context.Background(), commands.CastVoteCommand{
				UserID: "55", ElectionID: "1", OptionID: option,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, domainerrors.ErrDuplicateVote) {
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one success, got %d", succeeded)
	}
	election, _ := store.GetElection(context.Background(), "1")
	if election.TotalVotes != 2 {
		t.Fatalf("expected one increment over the seed, got %d", election.TotalVotes)
	}
}

func TestCastVoteRequiresUser(t *testing.T) {
	store := memory.NewStore(memory.DemoSeed(now))
	_, votes := newUseCases(store)

	_, err := votes.CastVote(context.Background(), commands.CastVoteCommand{ElectionID: "1", OptionID: "101"})
	var verr *domainerrors.ValidationError
	if !errors.As(err, &verr) || verr.Fields[domainerrors.FieldUserID] == "" {
		t.Fatalf("expected user validation error, got %v", err)
	}
}
