package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	"electionledger/contexts/election-operations/ballot-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory mirror used for tests and broker-less local runs.
// It keeps the same row shapes the relational mirror would: voter flags,
// per-candidate tallies, ballot sequences, and an outbox.
type Store struct {
	mu sync.RWMutex

	voters    map[string]bool
	tallies   map[string]int
	ballots   map[string]uint64
	mutations []ports.MutationDescriptor
	outbox    map[string]outboxRecord

	commitErr error
}

func NewStore() *Store {
	return &Store{
		voters:  make(map[string]bool),
		tallies: make(map[string]int),
		ballots: make(map[string]uint64),
		outbox:  make(map[string]outboxRecord),
	}
}

// SetCommitError makes every following Commit fail with err until cleared
// with nil. Used to exercise the orchestrator's rollback path.
func (s *Store) SetCommitError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

func (s *Store) Commit(_ context.Context, mutation ports.MutationDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return s.commitErr
	}

	switch mutation.Kind {
	case ports.MutationRegisterVoter:
		s.voters[mutation.VoterKey] = false
	case ports.MutationCastVote:
		s.voters[mutation.VoterKey] = true
		s.tallies[mutation.CandidateID] += mutation.VoteDelta
		s.ballots[mutation.ReceiptID] = mutation.Sequence
	case ports.MutationUndo:
		if mutation.UndoneAction == entities.ActionRegister {
			delete(s.voters, mutation.VoterKey)
			break
		}
		s.voters[mutation.VoterKey] = mutation.HasVoted
		s.tallies[mutation.CandidateID] += mutation.VoteDelta
		delete(s.ballots, mutation.ReceiptID)
	}
	s.mutations = append(s.mutations, mutation)

	envelope, err := newLedgerEnvelope(uuid.NewString(), mutation)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := uuid.NewString()
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    mutation.OccurredAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Mirror-side inspection helpers for tests.

func (s *Store) VoterHasVoted(voterKey string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voted, ok := s.voters[voterKey]
	return voted, ok
}

func (s *Store) TallyCount(candidateID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tallies[candidateID]
}

func (s *Store) MutationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mutations)
}
