package ports

import (
	"context"
	"time"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	contractsv1 "electionledger/contracts/gen/events/v1"
)

// MutationKind names the ledger mutations mirrored to persistence.
type MutationKind string

const (
	MutationRegisterVoter MutationKind = "register_voter"
	MutationCastVote      MutationKind = "cast_vote"
	MutationUndo          MutationKind = "undo"
)

// Event types emitted through the outbox for each mutation kind.
const (
	EventVoterRegistered = "ledger.voter.registered"
	EventVoteCast        = "ledger.vote.cast"
	EventActionUndone    = "ledger.action.undone"
)

// EventTypeFor maps a mutation kind to its outbox event type.
func EventTypeFor(kind MutationKind) string {
	switch kind {
	case MutationRegisterVoter:
		return EventVoterRegistered
	case MutationCastVote:
		return EventVoteCast
	default:
		return EventActionUndone
	}
}

// MutationDescriptor carries one committed in-memory mutation to the mirror.
// For undo kinds, UndoneAction names the reversed action.
type MutationDescriptor struct {
	Kind         MutationKind
	VoterKey     string
	CandidateID  string
	HasVoted     bool
	VoteDelta    int
	ReceiptID    string
	Sequence     uint64
	UndoneAction entities.ActionType
	OccurredAt   time.Time
}

// Mirror is the external system-of-record updated alongside the in-memory
// structures. Commit must atomically persist the mutation and its outbox
// event; a failed commit tells the orchestrator to roll the in-memory
// mutation back.
type Mirror interface {
	Commit(ctx context.Context, mutation MutationDescriptor) error
}

// LedgerReader is the read surface the query use cases consume.
type LedgerReader interface {
	Results() entities.TallyResults
	Stats() entities.LedgerStats
	AuditTrail(limit int) []entities.AuditEntry
}

// OutboxMessage is a mirrored event row ready to relay to the bus.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Clock allows deterministic timestamps in tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts receipt/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
