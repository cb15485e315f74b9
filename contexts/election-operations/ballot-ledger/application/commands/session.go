package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "electionledger/contexts/election-operations/ballot-ledger/application"
	"electionledger/contexts/election-operations/ballot-ledger/domain/collections"
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
	"electionledger/contexts/election-operations/ballot-ledger/ports"
)

// IntakeCommand is the write-model input for queueing a voter-intake request.
type IntakeCommand struct {
	VoterKey  string
	Payload   string
	Expedited bool
	Priority  int
}

// DrainResult summarizes one intake-draining pass.
type DrainResult struct {
	Processed  int
	Registered int
	Duplicates int
}

// SessionDeps wires a voting session. Mirror may be nil for pure in-memory
// use; Clock and IDGen must be set by the module wiring.
type SessionDeps struct {
	QueueCapacity     int
	CandidateCapacity int
	VoterBuckets      int
	Mirror            ports.Mirror
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	Logger            *slog.Logger
}

// Session owns the five in-memory structures and sequences every operation
// across them. It is the single writer: each public mutating operation holds
// one mutex for the whole sequence (lookup, mutation, audit push, mirror
// commit), so a concurrent host cannot interleave the voter-status check of
// one cast with the tally mutation of another.
//
// The in-memory structures are the source of truth during a request. When the
// mirror commit fails the in-memory mutation is rolled back before the error
// is returned, keeping ledger and mirror from diverging.
type Session struct {
	mu sync.Mutex

	intake     *collections.IntakeQueue
	expedited  *collections.ExpeditedQueue
	candidates *collections.CandidateStore
	voters     *collections.VoterTable
	audit      *collections.AuditStack
	sequence   uint64

	mirror ports.Mirror
	clock  ports.Clock
	idGen  ports.IDGenerator
	logger *slog.Logger
}

func NewSession(deps SessionDeps) *Session {
	return &Session{
		intake:     collections.NewIntakeQueue(deps.QueueCapacity),
		expedited:  collections.NewExpeditedQueue(),
		candidates: collections.NewCandidateStore(deps.CandidateCapacity),
		voters:     collections.NewVoterTable(deps.VoterBuckets),
		audit:      collections.NewAuditStack(),
		mirror:     deps.Mirror,
		clock:      deps.Clock,
		idGen:      deps.IDGen,
		logger:     deps.Logger,
	}
}

// RegisterCandidate adds a ballot option with a zero tally. Candidates are
// seeded at session start-up and are not mirrored; durable candidate rows are
// created lazily by the mirror when the first vote lands on them.
func (s *Session) RegisterCandidate(candidateID string, displayName string) error {
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" || strings.TrimSpace(displayName) == "" {
		return domainerrors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates.Insert(candidateID, strings.TrimSpace(displayName))
}

// RemoveCandidate deletes a ballot option and compacts the store.
func (s *Session) RemoveCandidate(candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates.Remove(strings.TrimSpace(candidateID))
}

// EnqueueIntake admits a voter-intake request. Expedited requests go to the
// priority queue and are drained ahead of the FIFO queue.
func (s *Session) EnqueueIntake(cmd IntakeCommand) error {
	logger := application.ResolveLogger(s.logger)
	key := strings.TrimSpace(cmd.VoterKey)
	if key == "" {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req := entities.IntakeRequest{RequesterKey: key, Payload: cmd.Payload}
	if cmd.Expedited {
		s.expedited.Enqueue(req, cmd.Priority)
	} else if err := s.intake.Enqueue(req); err != nil {
		logger.Warn("intake queue rejected request",
			"event", "ledger_intake_rejected",
			"module", "election-operations/ballot-ledger",
			"layer", "application",
			"queue_size", s.intake.Len(),
			"queue_capacity", s.intake.Cap(),
		)
		return err
	}
	return nil
}

// DrainIntake registers up to limit queued requests, expedited first, then
// FIFO order. Requests for already-registered voters count as duplicates and
// do not stop the drain; a mirror failure does.
func (s *Session) DrainIntake(ctx context.Context, limit int) (DrainResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = s.expedited.Len() + s.intake.Len()
	}

	var result DrainResult
	for result.Processed < limit {
		req, err := s.expedited.Dequeue()
		if err != nil {
			req, err = s.intake.Dequeue()
		}
		if err != nil {
			break
		}
		result.Processed++
		if err := s.registerVoterLocked(ctx, req.RequesterKey); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyRegistered) {
				result.Duplicates++
				continue
			}
			return result, err
		}
		result.Registered++
	}
	return result, nil
}

// RegisterVoter inserts a new voter-status record, records a REGISTER audit
// entry, and mirrors the mutation.
func (s *Session) RegisterVoter(ctx context.Context, voterKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerVoterLocked(ctx, voterKey)
}

func (s *Session) registerVoterLocked(ctx context.Context, voterKey string) error {
	logger := application.ResolveLogger(s.logger)
	key := strings.TrimSpace(voterKey)
	if key == "" {
		return domainerrors.ErrInvalidInput
	}

	now := s.now()
	status := entities.VoterStatus{
		VoterKey:     key,
		HasVoted:     false,
		RegisteredAt: now,
	}
	if err := s.voters.Insert(key, status); err != nil {
		return fmt.Errorf("%w: %w", domainerrors.ErrAlreadyRegistered, err)
	}
	s.audit.Push(entities.AuditEntry{
		Action:    entities.ActionRegister,
		VoterKey:  key,
		Timestamp: now,
	})

	if err := s.commitMirror(ctx, ports.MutationDescriptor{
		Kind:       ports.MutationRegisterVoter,
		VoterKey:   key,
		HasVoted:   false,
		OccurredAt: now,
	}); err != nil {
		_ = s.voters.Delete(key)
		_, _ = s.audit.Pop()
		logger.Error("voter registration rolled back after mirror failure",
			"event", "ledger_register_mirror_failed",
			"module", "election-operations/ballot-ledger",
			"layer", "application",
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %w", domainerrors.ErrMirrorFailed, err)
	}

	logger.Info("voter registered",
		"event", "ledger_voter_registered",
		"module", "election-operations/ballot-ledger",
		"layer", "application",
		"voter_table_size", s.voters.Len(),
	)
	return nil
}

// CastVote validates every precondition before touching any structure, then
// applies the tally increment, the voter-status flip, and the CAST audit
// entry as one unit under the session lock.
func (s *Session) CastVote(ctx context.Context, voterKey string, candidateID string) (entities.BallotReceipt, error) {
	logger := application.ResolveLogger(s.logger)
	key := strings.TrimSpace(voterKey)
	candidateID = strings.TrimSpace(candidateID)
	if key == "" || candidateID == "" {
		return entities.BallotReceipt{}, domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, found := s.voters.Search(key)
	if !found {
		return entities.BallotReceipt{}, domainerrors.ErrVoterNotFound
	}
	if status.HasVoted {
		return entities.BallotReceipt{}, domainerrors.ErrAlreadyVoted
	}
	candidate, found := s.candidates.SearchByID(candidateID)
	if !found {
		return entities.BallotReceipt{}, domainerrors.ErrCandidateNotFound
	}

	receiptID, err := s.idGen.NewID(ctx)
	if err != nil {
		return entities.BallotReceipt{}, err
	}
	now := s.now()
	before := entities.BeforeState{
		HasVoted:  status.HasVoted,
		VoteCount: candidate.VoteCount,
	}

	if err := s.candidates.IncrementVote(candidateID); err != nil {
		return entities.BallotReceipt{}, err
	}
	voted := status
	voted.HasVoted = true
	if err := s.voters.Update(key, voted); err != nil {
		_ = s.candidates.DecrementVote(candidateID)
		return entities.BallotReceipt{}, fmt.Errorf("%w: %w", domainerrors.ErrInvalidState, err)
	}
	s.sequence++
	receipt := entities.BallotReceipt{
		ReceiptID:   receiptID,
		CandidateID: candidateID,
		Sequence:    s.sequence,
		CastAt:      now,
	}
	s.audit.Push(entities.AuditEntry{
		Action:      entities.ActionCast,
		VoterKey:    key,
		CandidateID: candidateID,
		ReceiptID:   receiptID,
		Sequence:    receipt.Sequence,
		Timestamp:   now,
		Before:      before,
	})

	if err := s.commitMirror(ctx, ports.MutationDescriptor{
		Kind:        ports.MutationCastVote,
		VoterKey:    key,
		CandidateID: candidateID,
		HasVoted:    true,
		VoteDelta:   1,
		ReceiptID:   receiptID,
		Sequence:    receipt.Sequence,
		OccurredAt:  now,
	}); err != nil {
		_ = s.candidates.DecrementVote(candidateID)
		_ = s.voters.Update(key, status)
		_, _ = s.audit.Pop()
		s.sequence--
		logger.Error("cast vote rolled back after mirror failure",
			"event", "ledger_cast_mirror_failed",
			"module", "election-operations/ballot-ledger",
			"layer", "application",
			"candidate_id", candidateID,
			"error", err.Error(),
		)
		return entities.BallotReceipt{}, fmt.Errorf("%w: %w", domainerrors.ErrMirrorFailed, err)
	}

	logger.Info("vote cast",
		"event", "ledger_vote_cast",
		"module", "election-operations/ballot-ledger",
		"layer", "application",
		"candidate_id", candidateID,
		"sequence", receipt.Sequence,
	)
	return receipt, nil
}

// UndoLast pops the most recent audit entry and applies its compensating
// mutations. Entries are only ever undone top-to-bottom; there is no redo,
// so the reversal itself is not pushed back onto the stack.
func (s *Session) UndoLast(ctx context.Context) (entities.AuditEntry, error) {
	logger := application.ResolveLogger(s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.audit.Pop()
	if err != nil {
		return entities.AuditEntry{}, fmt.Errorf("%w: %w", domainerrors.ErrNothingToUndo, err)
	}

	if err := s.applyReversal(entry); err != nil {
		s.audit.Push(entry)
		return entities.AuditEntry{}, err
	}

	now := s.now()
	if err := s.commitMirror(ctx, ports.MutationDescriptor{
		Kind:         ports.MutationUndo,
		VoterKey:     entry.VoterKey,
		CandidateID:  entry.CandidateID,
		HasVoted:     entry.Before.HasVoted,
		VoteDelta:    -voteDelta(entry),
		ReceiptID:    entry.ReceiptID,
		Sequence:     entry.Sequence,
		UndoneAction: entry.Action,
		OccurredAt:   now,
	}); err != nil {
		s.reapply(entry)
		s.audit.Push(entry)
		logger.Error("undo rolled back after mirror failure",
			"event", "ledger_undo_mirror_failed",
			"module", "election-operations/ballot-ledger",
			"layer", "application",
			"undone_action", string(entry.Action),
			"error", err.Error(),
		)
		return entities.AuditEntry{}, fmt.Errorf("%w: %w", domainerrors.ErrMirrorFailed, err)
	}

	logger.Info("last action undone",
		"event", "ledger_action_undone",
		"module", "election-operations/ballot-ledger",
		"layer", "application",
		"undone_action", string(entry.Action),
		"audit_size", s.audit.Len(),
	)
	return entry, nil
}

func (s *Session) applyReversal(entry entities.AuditEntry) error {
	switch entry.Action {
	case entities.ActionCast:
		if err := s.candidates.DecrementVote(entry.CandidateID); err != nil {
			return err
		}
		status, found := s.voters.Search(entry.VoterKey)
		if !found {
			_ = s.candidates.IncrementVote(entry.CandidateID)
			return fmt.Errorf("%w: voter %q missing during undo", domainerrors.ErrInvalidState, entry.VoterKey)
		}
		status.HasVoted = entry.Before.HasVoted
		return s.voters.Update(entry.VoterKey, status)
	case entities.ActionRegister:
		if err := s.voters.Delete(entry.VoterKey); err != nil {
			return fmt.Errorf("%w: %w", domainerrors.ErrInvalidState, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: audit action %q is not reversible", domainerrors.ErrInvalidState, entry.Action)
	}
}

// reapply restores the effect of an entry whose reversal could not be
// mirrored, so the in-memory ledger keeps matching the mirror.
func (s *Session) reapply(entry entities.AuditEntry) {
	switch entry.Action {
	case entities.ActionCast:
		_ = s.candidates.IncrementVote(entry.CandidateID)
		if status, found := s.voters.Search(entry.VoterKey); found {
			status.HasVoted = true
			_ = s.voters.Update(entry.VoterKey, status)
		}
	case entities.ActionRegister:
		_ = s.voters.Insert(entry.VoterKey, entities.VoterStatus{
			VoterKey:     entry.VoterKey,
			HasVoted:     false,
			RegisteredAt: entry.Timestamp,
		})
	}
}

// Results is a pure read over the candidate store.
func (s *Session) Results() entities.TallyResults {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := entities.TallyResults{
		Ranked:     s.candidates.RankedResults(),
		TotalVotes: s.candidates.TotalVotes(),
	}
	if winner, err := s.candidates.Winner(); err == nil {
		results.Winner = &winner
	}
	return results
}

// Stats reports per-structure diagnostics.
func (s *Session) Stats() entities.LedgerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return entities.LedgerStats{
		Queue: entities.QueueStats{
			Size:      s.intake.Len(),
			Capacity:  s.intake.Cap(),
			Expedited: s.expedited.Len(),
		},
		Candidates: entities.CandidateStats{
			Size:       s.candidates.Len(),
			Capacity:   s.candidates.Cap(),
			TotalVotes: s.candidates.TotalVotes(),
		},
		Voters: entities.VoterTableStats{
			Size:           s.voters.Len(),
			Buckets:        s.voters.Buckets(),
			LoadFactor:     s.voters.LoadFactor(),
			MaxChainLength: s.voters.MaxChainLength(),
		},
		Audit: entities.AuditStats{
			Size:    s.audit.Len(),
			IsEmpty: s.audit.IsEmpty(),
		},
	}
}

// AuditTrail returns recent audit entries, newest first, without popping.
func (s *Session) AuditTrail(limit int) []entities.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit.Recent(limit)
}

func (s *Session) commitMirror(ctx context.Context, mutation ports.MutationDescriptor) error {
	// Mirror is optional for pure in-memory wiring, so nil is treated as no-op.
	if s.mirror == nil {
		return nil
	}
	return s.mirror.Commit(ctx, mutation)
}

func (s *Session) now() time.Time {
	now := time.Now().UTC()
	if s.clock != nil {
		now = s.clock.Now().UTC()
	}
	return now
}

func voteDelta(entry entities.AuditEntry) int {
	if entry.Action == entities.ActionCast {
		return 1
	}
	return 0
}

