package errors

import "errors"

var (
	// Capacity errors on bounded structures. Terminal for the requested
	// operation, never retried.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// State errors surfaced by the structures.
	ErrEmptyQueue   = errors.New("queue is empty")
	ErrEmptyStack   = errors.New("audit stack is empty")
	ErrDuplicateID  = errors.New("candidate id already present")
	ErrDuplicateKey = errors.New("key already present")
	ErrKeyNotFound  = errors.New("key not found")
	ErrNoCandidates = errors.New("no candidates registered")

	// State errors surfaced by the orchestrator.
	ErrInvalidInput      = errors.New("invalid ledger input")
	ErrAlreadyRegistered = errors.New("voter already registered")
	ErrVoterNotFound     = errors.New("voter not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrAlreadyVoted      = errors.New("voter has already voted")
	ErrNothingToUndo     = errors.New("nothing to undo")

	// ErrInvalidState marks an orchestration sequencing bug, e.g. a tally
	// decremented below zero. Distinct from user-facing state errors.
	ErrInvalidState = errors.New("invalid ledger state")

	// ErrMirrorFailed wraps persistence mirror failures after the in-memory
	// mutation has been rolled back.
	ErrMirrorFailed = errors.New("persistence mirror commit failed")
)
