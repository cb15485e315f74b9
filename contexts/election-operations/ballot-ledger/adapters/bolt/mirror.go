package boltadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
	"electionledger/contexts/election-operations/ballot-ledger/ports"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketVoters  = []byte("voters")
	bucketTallies = []byte("tallies")
	bucketBallots = []byte("ballots")
	bucketAudit   = []byte("audit")
)

type voterRow struct {
	HasVoted     bool      `json:"has_voted"`
	RegisteredAt time.Time `json:"registered_at"`
}

type ballotRow struct {
	Seq         uint64    `json:"seq"`
	CandidateID string    `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}

type auditRow struct {
	Action       string    `json:"action"`
	VoterKey     string    `json:"voter_key"`
	CandidateID  string    `json:"candidate_id"`
	UndoneAction string    `json:"undone_action,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Mirror is a single-file mirror for local runs without postgres. Each Commit
// is one bolt write transaction over the voter, tally, ballot and audit
// buckets. It carries no outbox; the relay worker pairs with the relational
// mirror only.
type Mirror struct {
	db     *bolt.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Mirror, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketVoters, bucketTallies, bucketBallots, bucketAudit} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Mirror{db: db, logger: logger}, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

func (m *Mirror) Commit(_ context.Context, mutation ports.MutationDescriptor) error {
	err := m.db.Update(func(tx *bolt.Tx) error {
		switch mutation.Kind {
		case ports.MutationRegisterVoter:
			return m.applyRegister(tx, mutation)
		case ports.MutationCastVote:
			return m.applyCast(tx, mutation)
		case ports.MutationUndo:
			return m.applyUndo(tx, mutation)
		default:
			return domainerrors.ErrInvalidState
		}
	})
	if err != nil {
		m.logger.Error("bolt mirror commit failed",
			"event", "ledger_bolt_commit_failed",
			"module", "election-operations/ballot-ledger",
			"layer", "adapter",
			"kind", string(mutation.Kind),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (m *Mirror) applyRegister(tx *bolt.Tx, mutation ports.MutationDescriptor) error {
	voters := tx.Bucket(bucketVoters)
	key := []byte(mutation.VoterKey)
	if voters.Get(key) != nil {
		return domainerrors.ErrAlreadyRegistered
	}
	value, err := json.Marshal(voterRow{
		HasVoted:     false,
		RegisteredAt: mutation.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}
	if err := voters.Put(key, value); err != nil {
		return err
	}
	return m.appendAudit(tx, mutation)
}

func (m *Mirror) applyCast(tx *bolt.Tx, mutation ports.MutationDescriptor) error {
	if err := m.putVoterFlag(tx, mutation.VoterKey, true); err != nil {
		return err
	}
	if err := m.bumpTally(tx, mutation.CandidateID, mutation.VoteDelta); err != nil {
		return err
	}
	ballots := tx.Bucket(bucketBallots)
	value, err := json.Marshal(ballotRow{
		Seq:         mutation.Sequence,
		CandidateID: mutation.CandidateID,
		CastAt:      mutation.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}
	if err := ballots.Put([]byte(mutation.ReceiptID), value); err != nil {
		return err
	}
	return m.appendAudit(tx, mutation)
}

func (m *Mirror) applyUndo(tx *bolt.Tx, mutation ports.MutationDescriptor) error {
	if mutation.UndoneAction == entities.ActionRegister {
		if err := tx.Bucket(bucketVoters).Delete([]byte(mutation.VoterKey)); err != nil {
			return err
		}
		return m.appendAudit(tx, mutation)
	}
	if err := m.putVoterFlag(tx, mutation.VoterKey, mutation.HasVoted); err != nil {
		return err
	}
	if err := m.bumpTally(tx, mutation.CandidateID, mutation.VoteDelta); err != nil {
		return err
	}
	if err := tx.Bucket(bucketBallots).Delete([]byte(mutation.ReceiptID)); err != nil {
		return err
	}
	return m.appendAudit(tx, mutation)
}

func (m *Mirror) putVoterFlag(tx *bolt.Tx, voterKey string, hasVoted bool) error {
	voters := tx.Bucket(bucketVoters)
	key := []byte(voterKey)
	row := voterRow{}
	if raw := voters.Get(key); raw != nil {
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
	}
	row.HasVoted = hasVoted
	value, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return voters.Put(key, value)
}

func (m *Mirror) bumpTally(tx *bolt.Tx, candidateID string, delta int) error {
	tallies := tx.Bucket(bucketTallies)
	key := []byte(candidateID)
	count := 0
	if raw := tallies.Get(key); raw != nil {
		parsed, err := strconv.Atoi(string(raw))
		if err != nil {
			return err
		}
		count = parsed
	}
	count += delta
	if count < 0 {
		return domainerrors.ErrInvalidState
	}
	return tallies.Put(key, []byte(strconv.Itoa(count)))
}

func (m *Mirror) appendAudit(tx *bolt.Tx, mutation ports.MutationDescriptor) error {
	audit := tx.Bucket(bucketAudit)
	value, err := json.Marshal(auditRow{
		Action:       string(actionFor(mutation)),
		VoterKey:     mutation.VoterKey,
		CandidateID:  mutation.CandidateID,
		UndoneAction: string(mutation.UndoneAction),
		OccurredAt:   mutation.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}
	return audit.Put([]byte(uuid.NewString()), value)
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

var _ ports.Mirror = (*Mirror)(nil)
