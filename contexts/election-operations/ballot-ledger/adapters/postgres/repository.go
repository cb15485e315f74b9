package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
	"electionledger/contexts/election-operations/ballot-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the relational mirror. Each Commit writes the mutation rows
// and the outbox event inside one transaction, so the mirror never holds a
// state change whose event was lost.
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

// Migrate creates the mirror tables. Called by bootstrap on start-up.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&voterModel{},
		&tallyModel{},
		&ballotModel{},
		&auditEventModel{},
		&outboxModel{},
	)
}

func (r *Repository) Commit(ctx context.Context, mutation ports.MutationDescriptor) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch mutation.Kind {
		case ports.MutationRegisterVoter:
			if err := r.applyRegister(tx, mutation); err != nil {
				return err
			}
		case ports.MutationCastVote:
			if err := r.applyCast(tx, mutation); err != nil {
				return err
			}
		case ports.MutationUndo:
			if err := r.applyUndo(tx, mutation); err != nil {
				return err
			}
		default:
			return domainerrors.ErrInvalidState
		}
		if err := r.appendAudit(tx, mutation); err != nil {
			return err
		}
		return r.appendOutbox(tx, mutation)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyRegistered) {
			return err
		}
		return r.logError("ledger_repo_commit_failed", err,
			"kind", string(mutation.Kind),
			"candidate_id", mutation.CandidateID,
		)
	}
	return nil
}

func (r *Repository) applyRegister(tx *gorm.DB, mutation ports.MutationDescriptor) error {
	row := voterModel{
		VoterKey:     mutation.VoterKey,
		HasVoted:     false,
		RegisteredAt: mutation.OccurredAt.UTC(),
		UpdatedAt:    mutation.OccurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *Repository) applyCast(tx *gorm.DB, mutation ports.MutationDescriptor) error {
	result := tx.Model(&voterModel{}).
		Where("voter_key = ?", mutation.VoterKey).
		Updates(map[string]any{
			"has_voted":  true,
			"updated_at": mutation.OccurredAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}

	tallyRow := tallyModel{
		CandidateID: mutation.CandidateID,
		VoteCount:   mutation.VoteDelta,
		UpdatedAt:   mutation.OccurredAt.UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"vote_count": gorm.Expr("ledger_tallies.vote_count + ?", mutation.VoteDelta),
			"updated_at": mutation.OccurredAt.UTC(),
		}),
	}).Create(&tallyRow).Error; err != nil {
		return err
	}

	ballotRow := ballotModel{
		ReceiptID:   mutation.ReceiptID,
		Seq:         int64(mutation.Sequence),
		CandidateID: mutation.CandidateID,
		CastAt:      mutation.OccurredAt.UTC(),
	}
	return tx.Create(&ballotRow).Error
}

func (r *Repository) applyUndo(tx *gorm.DB, mutation ports.MutationDescriptor) error {
	if mutation.UndoneAction == entities.ActionRegister {
		return tx.Where("voter_key = ?", mutation.VoterKey).
			Delete(&voterModel{}).Error
	}

	if err := tx.Model(&voterModel{}).
		Where("voter_key = ?", mutation.VoterKey).
		Updates(map[string]any{
			"has_voted":  mutation.HasVoted,
			"updated_at": mutation.OccurredAt.UTC(),
		}).Error; err != nil {
		return err
	}
	if err := tx.Model(&tallyModel{}).
		Where("candidate_id = ?", mutation.CandidateID).
		Updates(map[string]any{
			"vote_count": gorm.Expr("vote_count + ?", mutation.VoteDelta),
			"updated_at": mutation.OccurredAt.UTC(),
		}).Error; err != nil {
		return err
	}
	return tx.Where("receipt_id = ?", mutation.ReceiptID).
		Delete(&ballotModel{}).Error
}

func (r *Repository) appendAudit(tx *gorm.DB, mutation ports.MutationDescriptor) error {
	action := actionFor(mutation)
	details, err := json.Marshal(map[string]any{
		"candidate_id":  mutation.CandidateID,
		"receipt_id":    mutation.ReceiptID,
		"sequence":      mutation.Sequence,
		"undone_action": string(mutation.UndoneAction),
	})
	if err != nil {
		return err
	}
	row := auditEventModel{
		EventID:    uuid.NewString(),
		Action:     string(action),
		VoterKey:   mutation.VoterKey,
		Details:    details,
		OccurredAt: mutation.OccurredAt.UTC(),
	}
	return tx.Create(&row).Error
}

func (r *Repository) appendOutbox(tx *gorm.DB, mutation ports.MutationDescriptor) error {
	envelope, err := newLedgerEnvelope(uuid.NewString(), mutation)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     uuid.NewString(),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    mutation.OccurredAt.UTC(),
	}
	return tx.Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrKeyNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-operations/ballot-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

func actionFor(mutation ports.MutationDescriptor) entities.ActionType {
	switch mutation.Kind {
	case ports.MutationRegisterVoter:
		return entities.ActionRegister
	case ports.MutationCastVote:
		return entities.ActionCast
	default:
		return entities.ActionUndo
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type voterModel struct {
	VoterKey     string    `gorm:"column:voter_key;primaryKey"`
	HasVoted     bool      `gorm:"column:has_voted"`
	RegisteredAt time.Time `gorm:"column:registered_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "ledger_voters"
}

type tallyModel struct {
	CandidateID string    `gorm:"column:candidate_id;primaryKey"`
	VoteCount   int       `gorm:"column:vote_count"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (tallyModel) TableName() string {
	return "ledger_tallies"
}

type ballotModel struct {
	ReceiptID   string    `gorm:"column:receipt_id;primaryKey"`
	Seq         int64     `gorm:"column:seq"`
	CandidateID string    `gorm:"column:candidate_id"`
	CastAt      time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "ledger_ballots"
}

type auditEventModel struct {
	EventID    string    `gorm:"column:event_id;primaryKey"`
	Action     string    `gorm:"column:action"`
	VoterKey   string    `gorm:"column:voter_key"`
	Details    []byte    `gorm:"column:details"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (auditEventModel) TableName() string {
	return "ledger_audit_events"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ledger_outbox"
}

var _ ports.Mirror = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
