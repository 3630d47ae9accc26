package commands

import (
	"encoding/json"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	"ballotbox/contexts/civic-voting/election-engine/ports"
)

const (
	EventElectionCreated = "election.created"
	EventElectionUpdated = "election.updated"
	EventElectionDeleted = "election.deleted"
	EventVoteCast        = "vote.cast"
)

func newElectionEnvelope(
	eventID string,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Every election event is partitioned by election so consumers see a
	// single election's history in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "election-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "election_id",
		PartitionKey:     electionID,
		Data:             payload,
	}, nil
}

func electionEventData(election entities.Election, actorID string) map[string]any {
	options := make([]map[string]any, 0, len(election.Options))
	for _, option := range election.Options {
		options = append(options, map[string]any{
			"option_id": option.OptionID,
			"text":      option.Text,
		})
	}
	return map[string]any{
		"election_id": election.ElectionID,
		"title":       election.Title,
		"start_time":  election.StartTime.UTC().Format(time.RFC3339),
		"end_time":    election.EndTime.UTC().Format(time.RFC3339),
		"created_by":  election.CreatedBy,
		"actor_id":    actorID,
		"options":     options,
	}
}
