package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/civic-voting/election-engine/domain/entities"
	domainerrors "ballotbox/contexts/civic-voting/election-engine/domain/errors"
	"ballotbox/contexts/civic-voting/election-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	options := optionModelsFromEntity(election)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		return tx.Create(&options).Error
	})
	if err != nil {
		return r.logError("election_repo_create_failed", err, "election_id", row.ID)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	return r.loadElection(r.db.WithContext(ctx), strings.TrimSpace(electionID), false)
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_failed", err)
	}
	if len(rows) == 0 {
		return []entities.Election{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var optionRows []optionModel
	if err := r.db.WithContext(ctx).
		Where("election_id IN ?", ids).
		Order("election_id ASC, position ASC").
		Find(&optionRows).Error; err != nil {
		return nil, r.logError("election_repo_list_options_failed", err)
	}
	byElection := make(map[string][]optionModel, len(rows))
	for _, option := range optionRows {
		byElection[option.ElectionID] = append(byElection[option.ElectionID], option)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(byElection[row.ID]))
	}
	return items, nil
}

func (r *Repository) UpdateElection(
	ctx context.Context,
	electionID string,
	mutate func(*entities.Election) error,
) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	var updated entities.Election
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.loadElection(tx, electionID, true)
		if err != nil {
			return err
		}
		draft := current.Clone()
		if err := mutate(&draft); err != nil {
			return err
		}
		draft.ElectionID = current.ElectionID
		draft.CreatedBy = current.CreatedBy
		draft.CreatedAt = current.CreatedAt
		draft.Status = ""

		if err := tx.Model(&electionModel{}).
			Where("id = ?", electionID).
			Updates(map[string]any{
				"title":       draft.Title,
				"description": draft.Description,
				"start_time":  draft.StartTime.UTC(),
				"end_time":    draft.EndTime.UTC(),
				"updated_at":  draft.UpdatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("election_id = ?", electionID).Delete(&optionModel{}).Error; err != nil {
			return err
		}
		if options := optionModelsFromEntity(draft); len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}
		updated = draft
		return nil
	})
	if err != nil {
		if domainerrors.IsDomain(err) {
			return entities.Election{}, err
		}
		return entities.Election{}, r.logError("election_repo_update_failed", err, "election_id", electionID)
	}
	return updated, nil
}

// DeleteElection removes the election and its options. Votes are kept.
func (r *Repository) DeleteElection(ctx context.Context, electionID string) error {
	electionID = strings.TrimSpace(electionID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", electionID).Delete(&electionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.NewNotFound(domainerrors.EntityElection, electionID)
		}
		return tx.Where("election_id = ?", electionID).Delete(&optionModel{}).Error
	})
	if err != nil {
		if domainerrors.IsDomain(err) {
			return err
		}
		return r.logError("election_repo_delete_failed", err, "election_id", electionID)
	}
	return nil
}

// RecordVote locks the election row, so checks and counter updates for one
// election are serialized. The unique (user_id, election_id) index backs the
// duplicate check.
func (r *Repository) RecordVote(ctx context.Context, input ports.RecordVoteInput) (entities.Election, error) {
	vote := input.Vote
	vote.UserID = strings.TrimSpace(vote.UserID)
	vote.ElectionID = strings.TrimSpace(vote.ElectionID)
	vote.OptionID = strings.TrimSpace(vote.OptionID)

	var updated entities.Election
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		election, err := r.loadElection(tx, vote.ElectionID, true)
		if err != nil {
			return err
		}
		if err := entities.CheckVoteWindow(election, vote.OptionID, input.Now); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&voteModel{}).
			Where("user_id = ? AND election_id = ?", vote.UserID, vote.ElectionID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &domainerrors.DuplicateVoteError{UserID: vote.UserID, ElectionID: vote.ElectionID}
		}

		row := voteModelFromEntity(vote)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return &domainerrors.DuplicateVoteError{UserID: vote.UserID, ElectionID: vote.ElectionID}
			}
			return err
		}
		if err := tx.Model(&optionModel{}).
			Where("election_id = ? AND option_id = ?", vote.ElectionID, vote.OptionID).
			Update("votes", gorm.Expr("votes + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&electionModel{}).
			Where("id = ?", vote.ElectionID).
			Update("total_votes", gorm.Expr("total_votes + 1")).Error; err != nil {
			return err
		}
		if strings.TrimSpace(input.Event.EventID) != "" {
			if err := appendOutbox(tx, input.Event); err != nil {
				return err
			}
		}
		election.ApplyVote(vote.OptionID)
		updated = election
		return nil
	})
	if err != nil {
		if domainerrors.IsDomain(err) {
			return entities.Election{}, err
		}
		return entities.Election{}, r.logError("election_repo_record_vote_failed", err,
			"election_id", vote.ElectionID,
			"user_id", vote.UserID,
		)
	}
	return updated, nil
}

func (r *Repository) HasVoted(ctx context.Context, userID string, electionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("user_id = ? AND election_id = ?", strings.TrimSpace(userID), strings.TrimSpace(electionID)).
		Count(&count).Error; err != nil {
		return false, r.logError("election_repo_has_voted_failed", err,
			"user_id", strings.TrimSpace(userID),
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) ListVotesByUser(ctx context.Context, userID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_votes_by_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesByElection(ctx context.Context, electionID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_votes_by_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return toVoteEntities(rows), nil
}

// Seed inserts missing elections and votes, then recomputes every counter
// from the vote table.
func (r *Repository) Seed(ctx context.Context, elections []entities.Election, votes []entities.Vote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, election := range elections {
			row := electionModelFromEntity(election)
			row.TotalVotes = 0
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			options := optionModelsFromEntity(election)
			for i := range options {
				options[i].Votes = 0
			}
			if len(options) > 0 {
				if err := tx.Create(&options).Error; err != nil {
					return err
				}
			}
		}
		for _, vote := range votes {
			row := voteModelFromEntity(vote)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`UPDATE election_options o SET votes = (
			SELECT COUNT(*) FROM election_votes v
			WHERE v.election_id = o.election_id AND v.option_id = o.option_id)`).Error; err != nil {
			return err
		}
		return tx.Exec(`UPDATE elections e SET total_votes = (
			SELECT COUNT(*) FROM election_votes v
			JOIN election_options o ON o.election_id = v.election_id AND o.option_id = v.option_id
			WHERE v.election_id = e.id)`).Error
	})
	if err != nil {
		return r.logError("election_repo_seed_failed", err, "election_count", len(elections))
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	if err := appendOutbox(r.db.WithContext(ctx), envelope); err != nil {
		return r.logError("election_repo_append_outbox_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	return nil
}

func appendOutbox(db *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return create.Error
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := db.Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return fmt.Errorf("outbox event %q already recorded with a different payload", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("outbox row %q not found", strings.TrimSpace(outboxID))
	}
	return nil
}

func (r *Repository) loadElection(db *gorm.DB, electionID string, forUpdate bool) (entities.Election, error) {
	query := db
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row electionModel
	if err := query.Where("id = ?", electionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.NewNotFound(domainerrors.EntityElection, electionID)
		}
		return entities.Election{}, r.logError("election_repo_get_failed", err, "election_id", electionID)
	}
	var options []optionModel
	if err := db.Where("election_id = ?", electionID).
		Order("position ASC").
		Find(&options).Error; err != nil {
		return entities.Election{}, r.logError("election_repo_get_options_failed", err, "election_id", electionID)
	}
	return row.toEntity(options), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "civic-voting/election-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
