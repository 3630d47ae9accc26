package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	application "ballotbox/contexts/civic-voting/election-engine/application"
	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

const defaultAuditCG = "election-engine-audit-cg"

var ErrTallyDrift = errors.New("election counters differ from recorded votes")

// AuditTopics lists every event the engine emits.
var AuditTopics = []string{
	"election.created",
	"election.updated",
	"election.deleted",
	"vote.cast",
}

// AuditConsumer writes one structured audit line per election event. When
// Elections and Votes are set, every vote.cast is followed by a check that the
// election's counters still equal its recorded votes.
type AuditConsumer struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Elections     ports.ElectionRepository
	Votes         ports.VoteRepository
	Logger        *slog.Logger
}

func (c AuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultAuditCG
	}
	for _, topic := range AuditTopics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			logger.Error("audit consumer subscribe failed",
				"event", "election_audit_subscribe_failed",
				"module", application.Module,
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("audit consumer subscriptions active",
		"event", "election_audit_subscriptions_active",
		"module", application.Module,
		"layer", "worker",
		"consumer_group", group,
		"topics", AuditTopics,
	)
	return nil
}

func (c AuditConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var data map[string]any
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			logger.Warn("audit event payload undecodable",
				"event", "election_audit_payload_invalid",
				"module", application.Module,
				"layer", "worker",
				"event_id", event.EventID,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("election audit record",
		"event", "election_audit_record",
		"module", application.Module,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"election_id", event.PartitionKey,
		"occurred_at", event.OccurredAt,
		"data", data,
	)
	if event.EventType == "vote.cast" {
		return c.verifyTallies(ctx, event.PartitionKey)
	}
	return nil
}

// verifyTallies logs drift and never repairs it. A deleted election or a vote
// landing mid-check skips the comparison.
func (c AuditConsumer) verifyTallies(ctx context.Context, electionID string) error {
	if c.Elections == nil || c.Votes == nil || strings.TrimSpace(electionID) == "" {
		return nil
	}
	before, err := c.Votes.ListVotesByElection(ctx, electionID)
	if err != nil {
		return err
	}
	election, err := c.Elections.GetElection(ctx, electionID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	votes, err := c.Votes.ListVotesByElection(ctx, electionID)
	if err != nil {
		return err
	}
	// Votes are append-only; an unchanged count brackets a consistent read.
	if len(votes) != len(before) {
		return nil
	}
	if entities.TalliesMatch(election, votes) {
		return nil
	}
	application.ResolveLogger(c.Logger).Error("election tally drift detected",
		"event", "election_audit_tally_drift",
		"module", application.Module,
		"layer", "worker",
		"election_id", electionID,
		"total_votes", election.TotalVotes,
		"recorded_votes", len(votes),
	)
	return ErrTallyDrift
}
