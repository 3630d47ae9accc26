package postgresadapter

import (
	"strings"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
)

// Seq columns are bigserial and read-only for gorm; they give list queries a
// stable insertion order.

type electionModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Seq         int64     `gorm:"column:seq;->"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	StartTime   time.Time `gorm:"column:start_time"`
	EndTime     time.Time `gorm:"column:end_time"`
	CreatedBy   string    `gorm:"column:created_by"`
	TotalVotes  int       `gorm:"column:total_votes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

type optionModel struct {
	ElectionID string `gorm:"column:election_id;primaryKey"`
	OptionID   string `gorm:"column:option_id;primaryKey"`
	Position   int    `gorm:"column:position"`
	Text       string `gorm:"column:text"`
	Votes      int    `gorm:"column:votes"`
}

func (optionModel) TableName() string {
	return "election_options"
}

type voteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Seq        int64     `gorm:"column:seq;->"`
	UserID     string    `gorm:"column:user_id"`
	ElectionID string    `gorm:"column:election_id"`
	OptionID   string    `gorm:"column:option_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "election_votes"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	Seq          int64      `gorm:"column:seq;->"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "election_outbox"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ID:          strings.TrimSpace(election.ElectionID),
		Title:       election.Title,
		Description: election.Description,
		StartTime:   election.StartTime.UTC(),
		EndTime:     election.EndTime.UTC(),
		CreatedBy:   strings.TrimSpace(election.CreatedBy),
		TotalVotes:  election.TotalVotes,
		CreatedAt:   election.CreatedAt.UTC(),
		UpdatedAt:   election.UpdatedAt.UTC(),
	}
}

func optionModelsFromEntity(election entities.Election) []optionModel {
	items := make([]optionModel, 0, len(election.Options))
	for i, option := range election.Options {
		items = append(items, optionModel{
			ElectionID: strings.TrimSpace(election.ElectionID),
			OptionID:   strings.TrimSpace(option.OptionID),
			Position:   i,
			Text:       option.Text,
			Votes:      option.Votes,
		})
	}
	return items
}

func (m electionModel) toEntity(options []optionModel) entities.Election {
	election := entities.Election{
		ElectionID:  m.ID,
		Title:       m.Title,
		Description: m.Description,
		StartTime:   m.StartTime.UTC(),
		EndTime:     m.EndTime.UTC(),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		TotalVotes:  m.TotalVotes,
		Options:     make([]entities.Option, 0, len(options)),
	}
	for _, option := range options {
		election.Options = append(election.Options, entities.Option{
			OptionID: option.OptionID,
			Text:     option.Text,
			Votes:    option.Votes,
		})
	}
	return election
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:         strings.TrimSpace(vote.VoteID),
		UserID:     strings.TrimSpace(vote.UserID),
		ElectionID: strings.TrimSpace(vote.ElectionID),
		OptionID:   strings.TrimSpace(vote.OptionID),
		CreatedAt:  vote.Timestamp.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:     m.ID,
		UserID:     m.UserID,
		ElectionID: m.ElectionID,
		OptionID:   m.OptionID,
		Timestamp:  m.CreatedAt.UTC(),
	}
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}
