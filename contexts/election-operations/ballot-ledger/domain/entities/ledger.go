package entities

import "time"

// ActionType classifies audit trail entries.
type ActionType string

const (
	ActionRegister ActionType = "REGISTER"
	ActionCast     ActionType = "CAST"
	ActionUndo     ActionType = "UNDO"
)

// IntakeRequest is one queued voter-intake request. The intake queue owns the
// value until it is dequeued.
type IntakeRequest struct {
	RequesterKey string
	Payload      string
	EnqueueOrder uint64
}

// CandidateRecord is one slot in the candidate store. Index is the
// registration position and is compacted when a candidate is removed.
type CandidateRecord struct {
	CandidateID string
	DisplayName string
	VoteCount   int
	Index       int
}

// VoterStatus is the per-voter record held in the voter table. HasVoted is
// only ever reset by an explicit undo.
type VoterStatus struct {
	VoterKey     string
	HasVoted     bool
	RegisteredAt time.Time
}

// BeforeState captures enough prior state to reverse an audit entry.
type BeforeState struct {
	HasVoted  bool
	VoteCount int
}

// AuditEntry is one reversible action on the ledger. Entries are pushed in
// strict chronological order; reversing them out of order is not supported.
type AuditEntry struct {
	Action      ActionType
	VoterKey    string
	CandidateID string
	ReceiptID   string
	Sequence    uint64
	Timestamp   time.Time
	Before      BeforeState
}

// BallotReceipt is returned to the caller after a successful cast.
type BallotReceipt struct {
	ReceiptID   string
	CandidateID string
	Sequence    uint64
	CastAt      time.Time
}

// TallyResults is the read model for current standings.
type TallyResults struct {
	Ranked     []CandidateRecord
	Winner     *CandidateRecord
	TotalVotes int
}

type QueueStats struct {
	Size      int
	Capacity  int
	Expedited int
}

type CandidateStats struct {
	Size       int
	Capacity   int
	TotalVotes int
}

type VoterTableStats struct {
	Size           int
	Buckets        int
	LoadFactor     float64
	MaxChainLength int
}

type AuditStats struct {
	Size    int
	IsEmpty bool
}

// LedgerStats aggregates per-structure diagnostics for the stats endpoint.
type LedgerStats struct {
	Queue      QueueStats
	Candidates CandidateStats
	Voters     VoterTableStats
	Audit      AuditStats
}
