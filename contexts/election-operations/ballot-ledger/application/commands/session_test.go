package commands

import (
	"context"
	"errors"
	"testing"

	"electionledger/contexts/election-operations/ballot-ledger/adapters/memory"
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

func newTestSession(t *testing.T) (*Session, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	session := NewSession(SessionDeps{
		Mirror: store,
		Clock:  store,
		IDGen:  store,
	})
	for _, seed := range [][2]string{{"c-1", "Alice"}, {"c-2", "Bob"}} {
		if err := session.RegisterCandidate(seed[0], seed[1]); err != nil {
			t.Fatalf("seed candidate %s failed: %v", seed[0], err)
		}
	}
	return session, store
}

func TestRegisterCastUndoRoundTrip(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	if err := session.RegisterVoter(ctx, "voter-1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	receipt, err := session.CastVote(ctx, "voter-1", "c-1")
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if receipt.ReceiptID == "" || receipt.Sequence != 1 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	results := session.Results()
	if results.TotalVotes != 1 {
		t.Fatalf("expected 1 vote, got %d", results.TotalVotes)
	}
	if results.Winner == nil || results.Winner.CandidateID != "c-1" {
		t.Fatalf("expected c-1 winner, got %+v", results.Winner)
	}
	if store.TallyCount("c-1") != 1 {
		t.Fatalf("expected mirrored tally 1, got %d", store.TallyCount("c-1"))
	}

	entry, err := session.UndoLast(ctx)
	if err != nil {
		t.Fatalf("undo cast failed: %v", err)
	}
	if entry.Action != entities.ActionCast {
		t.Fatalf("expected cast undone, got %s", entry.Action)
	}
	if session.Results().TotalVotes != 0 {
		t.Fatalf("expected tally reset after undo")
	}
	if store.TallyCount("c-1") != 0 {
		t.Fatalf("expected mirrored tally reset, got %d", store.TallyCount("c-1"))
	}

	// Voter can vote again after the cast was undone.
	if _, err := session.CastVote(ctx, "voter-1", "c-2"); err != nil {
		t.Fatalf("re-cast failed: %v", err)
	}

	// Unwind the remaining cast and the registration.
	if _, err := session.UndoLast(ctx); err != nil {
		t.Fatalf("undo re-cast failed: %v", err)
	}
	entry, err = session.UndoLast(ctx)
	if err != nil {
		t.Fatalf("undo register failed: %v", err)
	}
	if entry.Action != entities.ActionRegister {
		t.Fatalf("expected register undone, got %s", entry.Action)
	}
	if voted, found := store.VoterHasVoted("voter-1"); found {
		t.Fatalf("expected voter removed from mirror, has_voted=%v", voted)
	}

	if _, err := session.UndoLast(ctx); !errors.Is(err, domainerrors.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestCastVoteValidation(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := session.CastVote(ctx, "ghost", "c-1"); !errors.Is(err, domainerrors.ErrVoterNotFound) {
		t.Fatalf("expected ErrVoterNotFound, got %v", err)
	}

	if err := session.RegisterVoter(ctx, "voter-1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := session.CastVote(ctx, "voter-1", "c-9"); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}

	if _, err := session.CastVote(ctx, "voter-1", "c-1"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if _, err := session.CastVote(ctx, "voter-1", "c-2"); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	// The rejected second cast must not have touched any tally.
	if session.Results().TotalVotes != 1 {
		t.Fatalf("expected exactly 1 vote, got %d", session.Results().TotalVotes)
	}

	if err := session.RegisterVoter(ctx, "voter-1"); !errors.Is(err, domainerrors.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestMirrorFailureRollsBackRegister(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	store.SetCommitError(errors.New("mirror down"))
	err := session.RegisterVoter(ctx, "voter-1")
	if !errors.Is(err, domainerrors.ErrMirrorFailed) {
		t.Fatalf("expected ErrMirrorFailed, got %v", err)
	}

	store.SetCommitError(nil)
	// Rollback must have released the key and popped the audit entry.
	if err := session.RegisterVoter(ctx, "voter-1"); err != nil {
		t.Fatalf("register after rollback failed: %v", err)
	}
	if session.Stats().Audit.Size != 1 {
		t.Fatalf("expected single audit entry, got %d", session.Stats().Audit.Size)
	}
}

func TestMirrorFailureRollsBackCast(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	if err := session.RegisterVoter(ctx, "voter-1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	store.SetCommitError(errors.New("mirror down"))
	if _, err := session.CastVote(ctx, "voter-1", "c-1"); !errors.Is(err, domainerrors.ErrMirrorFailed) {
		t.Fatalf("expected ErrMirrorFailed, got %v", err)
	}

	if session.Results().TotalVotes != 0 {
		t.Fatalf("expected tally rollback, got %d votes", session.Results().TotalVotes)
	}

	store.SetCommitError(nil)
	receipt, err := session.CastVote(ctx, "voter-1", "c-1")
	if err != nil {
		t.Fatalf("cast after rollback failed: %v", err)
	}
	if receipt.Sequence != 1 {
		t.Fatalf("expected sequence 1 after rollback, got %d", receipt.Sequence)
	}
}

func TestMirrorFailureReappliesUndo(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	if err := session.RegisterVoter(ctx, "voter-1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := session.CastVote(ctx, "voter-1", "c-1"); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	store.SetCommitError(errors.New("mirror down"))
	if _, err := session.UndoLast(ctx); !errors.Is(err, domainerrors.ErrMirrorFailed) {
		t.Fatalf("expected ErrMirrorFailed, got %v", err)
	}

	// The failed undo must leave the vote in place and undoable.
	if session.Results().TotalVotes != 1 {
		t.Fatalf("expected vote preserved, got %d", session.Results().TotalVotes)
	}
	store.SetCommitError(nil)
	if _, err := session.UndoLast(ctx); err != nil {
		t.Fatalf("undo after recovery failed: %v", err)
	}
	if session.Results().TotalVotes != 0 {
		t.Fatalf("expected tally reset, got %d", session.Results().TotalVotes)
	}
}

func TestDrainIntakeExpeditedFirst(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	for _, key := range []string{"fifo-1", "fifo-2"} {
		if err := session.EnqueueIntake(IntakeCommand{VoterKey: key}); err != nil {
			t.Fatalf("enqueue %s failed: %v", key, err)
		}
	}
	if err := session.EnqueueIntake(IntakeCommand{VoterKey: "urgent", Expedited: true, Priority: 5}); err != nil {
		t.Fatalf("enqueue urgent failed: %v", err)
	}
	// Duplicate of an already-registered voter.
	if err := session.RegisterVoter(ctx, "fifo-2"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := session.DrainIntake(ctx, 0)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if result.Processed != 3 || result.Registered != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected drain result: %+v", result)
	}

	trail := session.AuditTrail(0)
	// Newest first: fifo-1, urgent, fifo-2 (manual register).
	if len(trail) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(trail))
	}
	if trail[1].VoterKey != "urgent" {
		t.Fatalf("expected expedited request drained before fifo, trail[1]=%s", trail[1].VoterKey)
	}

	stats := session.Stats()
	if stats.Queue.Size != 0 || stats.Queue.Expedited != 0 {
		t.Fatalf("expected drained queues, got %+v", stats.Queue)
	}
}

func TestDrainIntakeHonorsLimit(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	for _, key := range []string{"v-1", "v-2", "v-3"} {
		if err := session.EnqueueIntake(IntakeCommand{VoterKey: key}); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	result, err := session.DrainIntake(ctx, 2)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if result.Processed != 2 || result.Registered != 2 {
		t.Fatalf("unexpected drain result: %+v", result)
	}
	if session.Stats().Queue.Size != 1 {
		t.Fatalf("expected 1 queued request left, got %d", session.Stats().Queue.Size)
	}
}

func TestEnqueueIntakeValidation(t *testing.T) {
	session, _ := newTestSession(t)
	if err := session.EnqueueIntake(IntakeCommand{VoterKey: "   "}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRemoveCandidate(t *testing.T) {
	session, _ := newTestSession(t)
	if err := session.RemoveCandidate("c-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := session.RemoveCandidate("c-1"); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
	stats := session.Stats()
	if stats.Candidates.Size != 1 {
		t.Fatalf("expected 1 candidate left, got %d", stats.Candidates.Size)
	}
}
