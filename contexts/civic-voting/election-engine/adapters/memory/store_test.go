package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func voteInput(voteID, userID, electionID, optionID string) ports.RecordVoteInput {
	return ports.RecordVoteInput{
		Vote: entities.Vote{
			VoteID:     voteID,
			UserID:     userID,
			ElectionID: electionID,
			OptionID:   optionID,
			Timestamp:  testNow,
		},
		Now: testNow,
	}
}

func assertTalliesMatchVotes(t *testing.T, store *Store) {
	t.Helper()
	elections, err := store.ListElections(context.Background())
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	for _, election := range elections {
		votes, err := store.ListVotesByElection(context.Background(), election.ElectionID)
		if err != nil {
			t.Fatalf("list votes failed: %v", err)
		}
		if election.TotalVotes != len(votes) {
			t.Fatalf("election %s: total %d but %d votes", election.ElectionID, election.TotalVotes, len(votes))
		}
		perOption := map[string]int{}
		for _, vote := range votes {
			perOption[vote.OptionID]++
		}
		for _, option := range election.Options {
			if option.Votes != perOption[option.OptionID] {
				t.Fatalf("option %s: counter %d but %d votes", option.OptionID, option.Votes, perOption[option.OptionID])
			}
		}
	}
}

func TestDemoSeedRecomputesCountersFromVotes(t *testing.T) {
	store := NewStore(DemoSeed(testNow))

	election, err := store.GetElection(context.Background(), "1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.TotalVotes != 1 {
		t.Fatalf("expected one seeded vote, got %d", election.TotalVotes)
	}
	if option, _ := election.Option("103"); option.Votes != 1 {
		t.Fatalf("expected option 103 to hold the seeded vote, got %d", option.Votes)
	}
	statuses := map[string]entities.ElectionStatus{
		"1": entities.ElectionStatusActive,
		"2": entities.ElectionStatusUpcoming,
		"3": entities.ElectionStatusCompleted,
	}
	for id, want := range statuses {
		item, err := store.GetElection(context.Background(), id)
		if err != nil {
			t.Fatalf("get election %s failed: %v", id, err)
		}
		if got := item.StatusAt(testNow); got != want {
			t.Fatalf("election %s: expected %s, got %s", id, want, got)
		}
	}
	assertTalliesMatchVotes(t, store)
}

func TestRecordVoteChecksPreconditionsInOrder(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()

	_, err := store.RecordVote(ctx, voteInput("v1", "9", "missing", "101"))
	var notFound *domainerrors.NotFoundError
	if !errors.As(err, &notFound) || notFound.Entity != domainerrors.EntityElection {
		t.Fatalf("expected election not found, got %v", err)
	}

	_, err = store.RecordVote(ctx, voteInput("v2", "9", "2", "missing"))
	var stateErr *domainerrors.InvalidStateError
	if !errors.As(err, &stateErr) || stateErr.Status != "upcoming" {
		t.Fatalf("expected upcoming invalid state, got %v", err)
	}

	_, err = store.RecordVote(ctx, voteInput("v3", "2", "1", "999"))
	if !errors.As(err, &notFound) || notFound.Entity != domainerrors.EntityOption {
		t.Fatalf("expected option not found before duplicate check, got %v", err)
	}

	_, err = store.RecordVote(ctx, voteInput("v4", "2", "1", "101"))
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}
	assertTalliesMatchVotes(t, store)
}

func TestRecordVoteRejectsDuplicateWithoutChangingTallies(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()

	updated, err := store.RecordVote(ctx, voteInput("v1", "9", "1", "101"))
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if updated.TotalVotes != 2 {
		t.Fatalf("expected total 2, got %d", updated.TotalVotes)
	}

	for _, optionID := range []string{"101", "102"} {
		if _, err := store.RecordVote(ctx, voteInput("v-"+optionID, "9", "1", optionID)); !errors.Is(err, domainerrors.ErrDuplicateVote) {
			t.Fatalf("expected duplicate vote, got %v", err)
		}
	}
	election, _ := store.GetElection(ctx, "1")
	if election.TotalVotes != 2 {
		t.Fatalf("expected tallies unchanged after duplicates, got %d", election.TotalVotes)
	}
	assertTalliesMatchVotes(t, store)
}

func TestConcurrentVotesForSameVoterRecordExactlyOne(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()
	const attempts = 64

	var wg sync.WaitGroup
	var successes atomic.Int32
	var duplicates atomic.Int32
	options := []string{"101", "102", "103"}
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.RecordVote(ctx, voteInput(fmt.Sprintf("v%d", i), "42", "1", options[i%len(options)]))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domainerrors.ErrDuplicateVote):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes.Load() != 1 || duplicates.Load() != attempts-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", attempts-1, successes.Load(), duplicates.Load())
	}
	votes, _ := store.ListVotesByUser(ctx, "42")
	if len(votes) != 1 {
		t.Fatalf("expected exactly one recorded vote, got %d", len(votes))
	}
	election, _ := store.GetElection(ctx, "1")
	if election.TotalVotes != 2 {
		t.Fatalf("expected exactly one increment over the seed, got %d", election.TotalVotes)
	}
	assertTalliesMatchVotes(t, store)
}

func TestRecordVoteStoresEventInSameUnit(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	input := voteInput("v1", "9", "1", "102")
	input.Event = ports.EventEnvelope{
		EventID:      "evt-1",
		EventType:    "vote.cast",
		OccurredAt:   testNow,
		PartitionKey: "1",
		Data:         json.RawMessage(`{"vote_id":"v1"}`),
	}
	if _, err := store.RecordVote(context.Background(), input); err != nil {
		t.Fatalf("record vote failed: %v", err)
	}

	duplicate := voteInput("v2", "9", "1", "102")
	duplicate.Event = ports.EventEnvelope{EventID: "evt-2", EventType: "vote.cast"}
	if _, err := store.RecordVote(context.Background(), duplicate); err == nil {
		t.Fatalf("expected duplicate vote to fail")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected only the accepted vote event, got %+v", pending)
	}
}

func TestDeleteElectionKeepsVotes(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()

	if err := store.DeleteElection(ctx, "3"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.GetElection(ctx, "3"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected deleted election to be gone, got %v", err)
	}
	votes, _ := store.ListVotesByUser(ctx, DemoVoter2ID)
	if len(votes) != 1 || votes[0].ElectionID != "3" {
		t.Fatalf("expected orphaned vote to remain, got %+v", votes)
	}
	if err := store.DeleteElection(ctx, "3"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected second delete to be not found, got %v", err)
	}
	elections, _ := store.ListElections(ctx)
	if len(elections) != 2 || elections[0].ElectionID != "1" || elections[1].ElectionID != "2" {
		t.Fatalf("expected insertion order 1,2 after delete, got %+v", elections)
	}
}

func TestUpdateElectionDiscardsFailedMutation(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()

	_, err := store.UpdateElection(ctx, "2", func(election *entities.Election) error {
		election.Title = "changed"
		return errors.New("rejected")
	})
	if err == nil {
		t.Fatalf("expected mutation error")
	}
	election, _ := store.GetElection(ctx, "2")
	if election.Title != "Annual Budget Approval" {
		t.Fatalf("expected title unchanged, got %q", election.Title)
	}

	updated, err := store.UpdateElection(ctx, "2", func(election *entities.Election) error {
		election.Title = "Budget 2027"
		election.CreatedBy = "intruder"
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "Budget 2027" || updated.CreatedBy != DemoAdminID {
		t.Fatalf("expected title change with authorship kept, got %+v", updated)
	}
}

func TestGetElectionReturnsDetachedCopy(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	election, _ := store.GetElection(context.Background(), "1")
	election.Options[0].Votes = 1000

	again, _ := store.GetElection(context.Background(), "1")
	if again.Options[0].Votes != 0 {
		t.Fatalf("expected store state isolated from callers, got %d", again.Options[0].Votes)
	}
}

func TestCountersTrackVotesAcrossMixedOperations(t *testing.T) {
	store := NewStore(DemoSeed(testNow))
	ctx := context.Background()

	created := entities.Election{
		ElectionID:  "10",
		Title:       "Office Lunch",
		Description: "Pick a caterer",
		StartTime:   testNow.Add(-time.Hour),
		EndTime:     testNow.Add(time.Hour),
		CreatedBy:   DemoAdminID,
		Options:     []entities.Option{{OptionID: "a", Text: "Tacos"}, {OptionID: "b", Text: "Sushi"}},
	}
	if err := store.CreateElection(ctx, created); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	assertTalliesMatchVotes(t, store)

	for i, optionID := range []string{"a", "b", "b"} {
		if _, err := store.RecordVote(ctx, voteInput(fmt.Sprintf("m%d", i), fmt.Sprintf("u%d", i), "10", optionID)); err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
		assertTalliesMatchVotes(t, store)
	}
	if _, err := store.RecordVote(ctx, voteInput("m-dup", "u0", "10", "b")); !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}
	if _, err := store.RecordVote(ctx, voteInput("m-1", "u0", "1", "102")); err != nil {
		t.Fatalf("vote in seeded election failed: %v", err)
	}
	assertTalliesMatchVotes(t, store)

	if _, err := store.UpdateElection(ctx, "10", func(election *entities.Election) error {
		election.Title = "Team Lunch"
		return nil
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	assertTalliesMatchVotes(t, store)

	if err := store.DeleteElection(ctx, "2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	assertTalliesMatchVotes(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			optionID := []string{"a", "b"}[i%2]
			if _, err := store.RecordVote(ctx, voteInput(fmt.Sprintf("c%d", i), fmt.Sprintf("c-user-%d", i), "10", optionID)); err != nil {
				t.Errorf("concurrent vote %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	assertTalliesMatchVotes(t, store)

	election, err := store.GetElection(ctx, "10")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if election.Title != "Team Lunch" || election.TotalVotes != 35 {
		t.Fatalf("expected edited election with 35 votes, got %+v", election)
	}
	if a, _ := election.Option("a"); a.Votes != 17 {
		t.Fatalf("expected 17 votes for a, got %d", a.Votes)
	}
	if b, _ := election.Option("b"); b.Votes != 18 {
		t.Fatalf("expected 18 votes for b, got %d", b.Votes)
	}
	votes, _ := store.ListVotesByElection(ctx, "10")
	if !entities.TalliesMatch(election, votes) {
		t.Fatalf("expected counters to match %d recorded votes", len(votes))
	}
}
