package collections

import (
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	domainerrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
)

// AuditStack is an unbounded LIFO sequence of recorded ledger actions. It is
// both the historical log and the source of compensating actions for undo.
// Pop is a pure stack primitive; translating a popped entry into reverse
// mutations belongs to the orchestrator. Undo only works top-to-bottom:
// popping out of order against later, still-undone entries that touched the
// same candidate or voter leaves the ledger inconsistent.
type AuditStack struct {
	entries []entities.AuditEntry
}

func NewAuditStack() *AuditStack {
	return &AuditStack{}
}

func (s *AuditStack) IsEmpty() bool {
	return len(s.entries) == 0
}

func (s *AuditStack) Len() int {
	return len(s.entries)
}

func (s *AuditStack) Push(entry entities.AuditEntry) {
	s.entries = append(s.entries, entry)
}

func (s *AuditStack) Pop() (entities.AuditEntry, error) {
	if s.IsEmpty() {
		return entities.AuditEntry{}, domainerrors.ErrEmptyStack
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, nil
}

func (s *AuditStack) Peek() (entities.AuditEntry, error) {
	if s.IsEmpty() {
		return entities.AuditEntry{}, domainerrors.ErrEmptyStack
	}
	return s.entries[len(s.entries)-1], nil
}

// Recent returns up to limit entries, newest first, without popping.
func (s *AuditStack) Recent(limit int) []entities.AuditEntry {
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	items := make([]entities.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= len(s.entries)-limit; i-- {
		items = append(items, s.entries[i])
	}
	return items
}
