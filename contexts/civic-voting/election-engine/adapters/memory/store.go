package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	seq       int64
	message   ports.OutboxMessage
	published bool
}

type voteKey struct {
	userID     string
	electionID string
}

// Seed is the initial content of a Store. Tallies on seeded elections are
// ignored and recomputed from Votes.
type Seed struct {
	Elections []entities.Election
	Votes     []entities.Vote
}

// Store is the single-writer election store. One RWMutex guards every map so
// readers always observe fully applied votes.
type Store struct {
	mu sync.RWMutex

	elections map[string]entities.Election
	order     []string
	votes     []entities.Vote
	voteIndex map[voteKey]struct{}
	outbox    map[string]outboxRecord
	outboxSeq int64
}

func NewStore(seed Seed) *Store {
	s := &Store{
		elections: make(map[string]entities.Election, len(seed.Elections)),
		order:     make([]string, 0, len(seed.Elections)),
		votes:     make([]entities.Vote, 0, len(seed.Votes)),
		voteIndex: make(map[voteKey]struct{}, len(seed.Votes)),
		outbox:    make(map[string]outboxRecord),
	}
	for _, election := range seed.Elections {
		election = election.Clone()
		election.ElectionID = strings.TrimSpace(election.ElectionID)
		election.Status = ""
		election.ResetTallies()
		if _, exists := s.elections[election.ElectionID]; !exists {
			s.order = append(s.order, election.ElectionID)
		}
		s.elections[election.ElectionID] = election
	}
	for _, vote := range seed.Votes {
		key := voteKey{userID: strings.TrimSpace(vote.UserID), electionID: strings.TrimSpace(vote.ElectionID)}
		if _, exists := s.voteIndex[key]; exists {
			continue
		}
		if election, ok := s.elections[key.electionID]; ok {
			if !election.ApplyVote(vote.OptionID) {
				continue
			}
			s.elections[key.electionID] = election
		}
		s.voteIndex[key] = struct{}{}
		s.votes = append(s.votes, vote)
	}
	return s
}

func (s *Store) CreateElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	electionID := strings.TrimSpace(election.ElectionID)
	if _, exists := s.elections[electionID]; exists {
		return fmt.Errorf("election %q already exists", electionID)
	}
	election = election.Clone()
	election.ElectionID = electionID
	election.Status = ""
	s.elections[electionID] = election
	s.order = append(s.order, electionID)
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.NewNotFound(domainerrors.EntityElection, electionID)
	}
	return election.Clone(), nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.order))
	for _, electionID := range s.order {
		items = append(items, s.elections[electionID].Clone())
	}
	return items, nil
}

func (s *Store) UpdateElection(
	_ context.Context,
	electionID string,
	mutate func(*entities.Election) error,
) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	electionID = strings.TrimSpace(electionID)
	current, ok := s.elections[electionID]
	if !ok {
		return entities.Election{}, domainerrors.NewNotFound(domainerrors.EntityElection, electionID)
	}
	draft := current.Clone()
	if err := mutate(&draft); err != nil {
		return entities.Election{}, err
	}
	draft.ElectionID = current.ElectionID
	draft.CreatedBy = current.CreatedBy
	draft.CreatedAt = current.CreatedAt
	draft.Status = ""
	s.elections[electionID] = draft
	return draft.Clone(), nil
}

func (s *Store) DeleteElection(_ context.Context, electionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	electionID = strings.TrimSpace(electionID)
	if _, ok := s.elections[electionID]; !ok {
		return domainerrors.NewNotFound(domainerrors.EntityElection, electionID)
	}
	delete(s.elections, electionID)
	for i, id := range s.order {
		if id == electionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) RecordVote(_ context.Context, input ports.RecordVoteInput) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote := input.Vote
	vote.UserID = strings.TrimSpace(vote.UserID)
	vote.ElectionID = strings.TrimSpace(vote.ElectionID)
	vote.OptionID = strings.TrimSpace(vote.OptionID)

	current, ok := s.elections[vote.ElectionID]
	if !ok {
		return entities.Election{}, domainerrors.NewNotFound(domainerrors.EntityElection, vote.ElectionID)
	}
	if err := entities.CheckVoteWindow(current, vote.OptionID, input.Now); err != nil {
		return entities.Election{}, err
	}
	key := voteKey{userID: vote.UserID, electionID: vote.ElectionID}
	if _, exists := s.voteIndex[key]; exists {
		return entities.Election{}, &domainerrors.DuplicateVoteError{UserID: vote.UserID, ElectionID: vote.ElectionID}
	}

	updated := current.Clone()
	updated.ApplyVote(vote.OptionID)
	if strings.TrimSpace(input.Event.EventID) != "" {
		if err := s.appendOutboxLocked(input.Event); err != nil {
			return entities.Election{}, err
		}
	}
	s.elections[vote.ElectionID] = updated
	s.voteIndex[key] = struct{}{}
	s.votes = append(s.votes, vote)
	return updated.Clone(), nil
}

func (s *Store) HasVoted(_ context.Context, userID string, electionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.voteIndex[voteKey{userID: strings.TrimSpace(userID), electionID: strings.TrimSpace(electionID)}]
	return ok, nil
}

func (s *Store) ListVotesByUser(_ context.Context, userID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID = strings.TrimSpace(userID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.UserID == userID {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (s *Store) ListVotesByElection(_ context.Context, electionID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ElectionID == electionID {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendOutboxLocked(envelope)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return fmt.Errorf("outbox event %q already recorded with a different payload", outboxID)
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outboxSeq++
	s.outbox[outboxID] = outboxRecord{
		seq: s.outboxSeq,
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

// ListPendingOutbox returns unpublished rows in append order.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if !row.published {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID = strings.TrimSpace(outboxID)
	row, ok := s.outbox[outboxID]
	if !ok {
		return fmt.Errorf("outbox row %q not found", outboxID)
	}
	row.published = true
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
