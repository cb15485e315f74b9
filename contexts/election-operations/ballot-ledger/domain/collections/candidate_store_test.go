package collections

import (
	"errors"
	"testing"

	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

func TestCandidateStoreInsertAndSearch(t *testing.T) {
	store := NewCandidateStore(3)
	if err := store.Insert("c-1", "Alice"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Insert("c-2", "Bob"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	record, found := store.SearchByID("c-2")
	if !found {
		t.Fatalf("expected c-2 to be found")
	}
	if record.DisplayName != "Bob" || record.Index != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if _, found := store.SearchByID("c-9"); found {
		t.Fatalf("expected c-9 to be absent")
	}
}

func TestCandidateStoreDuplicateAndCapacity(t *testing.T) {
	store := NewCandidateStore(2)
	if err := store.Insert("c-1", "Alice"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Insert("c-1", "Alice Again"); !errors.Is(err, domainerrors.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := store.Insert("c-2", "Bob"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Insert("c-3", "Cara"); !errors.Is(err, domainerrors.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestCandidateStoreVoteCounters(t *testing.T) {
	store := NewCandidateStore(2)
	if err := store.Insert("c-1", "Alice"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := store.IncrementVote("c-1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := store.IncrementVote("missing"); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
	if err := store.DecrementVote("c-1"); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if err := store.DecrementVote("c-1"); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on zero tally, got %v", err)
	}
}

func TestCandidateStoreRemoveCompacts(t *testing.T) {
	store := NewCandidateStore(4)
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		if err := store.Insert(id, id); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if err := store.Remove("c-2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove("c-2"); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].CandidateID != "c-1" || all[0].Index != 0 {
		t.Fatalf("unexpected record at 0: %+v", all[0])
	}
	if all[1].CandidateID != "c-3" || all[1].Index != 1 {
		t.Fatalf("expected index gap closed, got %+v", all[1])
	}
}

func TestCandidateStoreRankingTieBreak(t *testing.T) {
	store := NewCandidateStore(4)
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		if err := store.Insert(id, id); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	// c-2 gets two votes; c-1 and c-3 tie at one and resolve by
	// registration order.
	for _, id := range []string{"c-2", "c-2", "c-3", "c-1"} {
		if err := store.IncrementVote(id); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}

	ranked := store.RankedResults()
	order := []string{"c-2", "c-1", "c-3"}
	for i, expected := range order {
		if ranked[i].CandidateID != expected {
			t.Fatalf("rank %d: expected %s, got %s", i, expected, ranked[i].CandidateID)
		}
	}

	winner, err := store.Winner()
	if err != nil {
		t.Fatalf("winner failed: %v", err)
	}
	if winner.CandidateID != "c-2" {
		t.Fatalf("expected c-2 winner, got %s", winner.CandidateID)
	}
	if store.TotalVotes() != 4 {
		t.Fatalf("expected 4 total votes, got %d", store.TotalVotes())
	}
}

func TestCandidateStoreWinnerEmpty(t *testing.T) {
	store := NewCandidateStore(2)
	if _, err := store.Winner(); !errors.Is(err, domainerrors.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}
