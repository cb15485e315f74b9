package unit

import (
	"context"
	"errors"
	"testing"

	ballotledger "electionledger/contexts/election-operations/ballot-ledger"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
	httptransport "electionledger/contexts/election-operations/ballot-ledger/transport/http"
)

func newLedgerModule(t *testing.T) ballotledger.Module {
	t.Helper()
	module, err := ballotledger.NewInMemoryModule([]ballotledger.CandidateSeed{
		{CandidateID: "c-1", DisplayName: "Alice"},
		{CandidateID: "c-2", DisplayName: "Bob"},
		{CandidateID: "c-3", DisplayName: "Cara"},
	}, nil)
	if err != nil {
		t.Fatalf("module wiring failed: %v", err)
	}
	return module
}

func TestLedgerRegisterCastAndResults(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	voters := map[string]string{
		"voter-aaaaaa": "c-2",
		"voter-bbbbbb": "c-2",
		"voter-cccccc": "c-3",
		"voter-dddddd": "c-1",
	}
	for key := range voters {
		if _, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: key}); err != nil {
			t.Fatalf("register %s failed: %v", key, err)
		}
	}
	for key, candidate := range voters {
		receipt, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{
			VoterKey:    key,
			CandidateID: candidate,
		})
		if err != nil {
			t.Fatalf("cast %s failed: %v", key, err)
		}
		if receipt.ReceiptID == "" {
			t.Fatalf("expected receipt id for %s", key)
		}
	}

	results, err := module.Handler.ResultsHandler(ctx)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 4 {
		t.Fatalf("expected 4 total votes, got %d", results.TotalVotes)
	}
	if results.Winner == nil || results.Winner.CandidateID != "c-2" {
		t.Fatalf("expected c-2 winner, got %+v", results.Winner)
	}
	// c-1 and c-3 tie at one vote; c-1 registered first and ranks higher.
	order := []string{"c-2", "c-1", "c-3"}
	for i, expected := range order {
		if results.Items[i].CandidateID != expected {
			t.Fatalf("rank %d: expected %s, got %s", i+1, expected, results.Items[i].CandidateID)
		}
		if results.Items[i].Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, results.Items[i].Rank)
		}
	}

	if module.Store.MutationCount() != 8 {
		t.Fatalf("expected 8 mirrored mutations, got %d", module.Store.MutationCount())
	}
}

func TestLedgerUndoRestoresEligibility(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: "voter-zzzzzz"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterKey: "voter-zzzzzz", CandidateID: "c-1"}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	undone, err := module.Handler.UndoHandler(ctx)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if undone.UndoneAction != "CAST" || undone.CandidateID != "c-1" {
		t.Fatalf("unexpected undo response: %+v", undone)
	}

	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterKey: "voter-zzzzzz", CandidateID: "c-2"}); err != nil {
		t.Fatalf("re-cast after undo failed: %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 1 || results.Winner.CandidateID != "c-2" {
		t.Fatalf("unexpected results after undo: %+v", results)
	}
}

func TestLedgerUndoOnEmptyHistory(t *testing.T) {
	module := newLedgerModule(t)
	if _, err := module.Handler.UndoHandler(context.Background()); !errors.Is(err, domainerrors.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestLedgerIntakeDrainAndStats(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	for _, key := range []string{"voter-queued-1", "voter-queued-2"} {
		if err := module.Handler.EnqueueIntakeHandler(ctx, httptransport.IntakeRequestDTO{VoterKey: key}); err != nil {
			t.Fatalf("enqueue %s failed: %v", key, err)
		}
	}
	if err := module.Handler.EnqueueIntakeHandler(ctx, httptransport.IntakeRequestDTO{
		VoterKey:  "voter-urgent",
		Expedited: true,
		Priority:  3,
	}); err != nil {
		t.Fatalf("enqueue urgent failed: %v", err)
	}

	stats, err := module.Handler.StatsHandler(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Queue.Size != 2 || stats.Queue.Expedited != 1 {
		t.Fatalf("unexpected queue stats: %+v", stats.Queue)
	}

	drained, err := module.Handler.DrainIntakeHandler(ctx, httptransport.DrainIntakeRequest{})
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if drained.Processed != 3 || drained.Registered != 3 || drained.Duplicates != 0 {
		t.Fatalf("unexpected drain response: %+v", drained)
	}

	stats, err = module.Handler.StatsHandler(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Queue.Size != 0 || stats.Queue.Expedited != 0 {
		t.Fatalf("expected empty queues, got %+v", stats.Queue)
	}
	if stats.Voters.Size != 3 {
		t.Fatalf("expected 3 registered voters, got %d", stats.Voters.Size)
	}
	if stats.Audit.Size != 3 {
		t.Fatalf("expected 3 audit entries, got %d", stats.Audit.Size)
	}
}

func TestLedgerAuditTrailRedactsKeys(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: "voter-secret-key"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterKey: "voter-secret-key", CandidateID: "c-1"}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	trail, err := module.Handler.AuditTrailHandler(ctx, 10)
	if err != nil {
		t.Fatalf("audit trail failed: %v", err)
	}
	if len(trail.Items) != 2 {
		t.Fatalf("expected 2 trail items, got %d", len(trail.Items))
	}
	if trail.Items[0].Action != "CAST" || trail.Items[1].Action != "REGISTER" {
		t.Fatalf("expected newest first, got %s then %s", trail.Items[0].Action, trail.Items[1].Action)
	}
	for _, item := range trail.Items {
		if item.VoterKey != "voter-***" {
			t.Fatalf("expected redacted key, got %q", item.VoterKey)
		}
	}
}

func TestLedgerTieAtZeroKeepsRegistrationOrder(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: "voter-once"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, httptransport.CastVoteRequest{VoterKey: "voter-once", CandidateID: "c-1"}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if _, err := module.Handler.UndoHandler(ctx); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	results, err := module.Handler.ResultsHandler(ctx)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.TotalVotes != 0 {
		t.Fatalf("expected 0 votes after undo, got %d", results.TotalVotes)
	}
	// All candidates tie at zero; ranking falls back to registration order.
	order := []string{"c-1", "c-2", "c-3"}
	for i, expected := range order {
		if results.Items[i].CandidateID != expected {
			t.Fatalf("rank %d: expected %s, got %s", i+1, expected, results.Items[i].CandidateID)
		}
	}
}

func TestLedgerDuplicateRegistrationConflicts(t *testing.T) {
	module := newLedgerModule(t)
	ctx := context.Background()

	if _, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: "voter-dup"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := module.Handler.RegisterVoterHandler(ctx, httptransport.RegisterVoterRequest{VoterKey: "voter-dup"})
	if !errors.Is(err, domainerrors.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}
