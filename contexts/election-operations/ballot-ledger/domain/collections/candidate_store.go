package collections

import (
	"sort"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

const DefaultCandidateCapacity = 50

// CandidateStore is a fixed-capacity array of candidate records with vote
// counters. Lookup is a linear scan, kept deliberately simple so the tally
// path stays auditable. Registration order is preserved in Index and is the
// tie-break for rankings; removal compacts the array and closes index gaps.
type CandidateStore struct {
	records  []entities.CandidateRecord
	capacity int
}

func NewCandidateStore(capacity int) *CandidateStore {
	if capacity <= 0 {
		capacity = DefaultCandidateCapacity
	}
	return &CandidateStore{
		records:  make([]entities.CandidateRecord, 0, capacity),
		capacity: capacity,
	}
}

func (s *CandidateStore) IsEmpty() bool {
	return len(s.records) == 0
}

func (s *CandidateStore) IsFull() bool {
	return len(s.records) == s.capacity
}

func (s *CandidateStore) Len() int {
	return len(s.records)
}

func (s *CandidateStore) Cap() int {
	return s.capacity
}

// Insert appends a candidate with a zero tally.
func (s *CandidateStore) Insert(candidateID string, displayName string) error {
	if s.IsFull() {
		return domainerrors.ErrCapacityExceeded
	}
	if _, found := s.SearchByID(candidateID); found {
		return domainerrors.ErrDuplicateID
	}
	s.records = append(s.records, entities.CandidateRecord{
		CandidateID: candidateID,
		DisplayName: displayName,
		VoteCount:   0,
		Index:       len(s.records),
	})
	return nil
}

// SearchByID scans linearly for the candidate. O(n).
func (s *CandidateStore) SearchByID(candidateID string) (entities.CandidateRecord, bool) {
	for i := range s.records {
		if s.records[i].CandidateID == candidateID {
			return s.records[i], true
		}
	}
	return entities.CandidateRecord{}, false
}

func (s *CandidateStore) IncrementVote(candidateID string) error {
	for i := range s.records {
		if s.records[i].CandidateID == candidateID {
			s.records[i].VoteCount++
			return nil
		}
	}
	return domainerrors.ErrCandidateNotFound
}

// DecrementVote reverses one vote. A tally already at zero means the
// orchestration sequenced operations incorrectly and is reported as an
// invariant violation, not a user-facing error.
func (s *CandidateStore) DecrementVote(candidateID string) error {
	for i := range s.records {
		if s.records[i].CandidateID == candidateID {
			if s.records[i].VoteCount == 0 {
				return domainerrors.ErrInvalidState
			}
			s.records[i].VoteCount--
			return nil
		}
	}
	return domainerrors.ErrCandidateNotFound
}

// Remove deletes a candidate and shifts the remaining records left,
// reassigning indexes so registration order stays gapless.
func (s *CandidateStore) Remove(candidateID string) error {
	for i := range s.records {
		if s.records[i].CandidateID == candidateID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			for j := i; j < len(s.records); j++ {
				s.records[j].Index = j
			}
			return nil
		}
	}
	return domainerrors.ErrCandidateNotFound
}

// RankedResults returns all records sorted descending by vote count, ties
// broken by ascending registration index (first registered ranks higher).
func (s *CandidateStore) RankedResults() []entities.CandidateRecord {
	ranked := make([]entities.CandidateRecord, len(s.records))
	copy(ranked, s.records)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].VoteCount == ranked[j].VoteCount {
			return ranked[i].Index < ranked[j].Index
		}
		return ranked[i].VoteCount > ranked[j].VoteCount
	})
	return ranked
}

// Winner returns the single top record under the ranking tie-break.
func (s *CandidateStore) Winner() (entities.CandidateRecord, error) {
	if s.IsEmpty() {
		return entities.CandidateRecord{}, domainerrors.ErrNoCandidates
	}
	winner := s.records[0]
	for _, record := range s.records[1:] {
		if record.VoteCount > winner.VoteCount {
			winner = record
		}
	}
	return winner, nil
}

// TotalVotes sums the live tallies. O(n).
func (s *CandidateStore) TotalVotes() int {
	total := 0
	for i := range s.records {
		total += s.records[i].VoteCount
	}
	return total
}

// All returns the records in registration order.
func (s *CandidateStore) All() []entities.CandidateRecord {
	items := make([]entities.CandidateRecord, len(s.records))
	copy(items, s.records)
	return items
}
