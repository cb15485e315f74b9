package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterVoterRequest struct {
	VoterKey string `json:"voter_key"`
}

type RegisterVoterResponse struct {
	VoterKey   string `json:"voter_key"`
	Registered bool   `json:"registered"`
}

type CastVoteRequest struct {
	VoterKey    string `json:"voter_key"`
	CandidateID string `json:"candidate_id"`
}

type ReceiptResponse struct {
	ReceiptID   string `json:"receipt_id"`
	CandidateID string `json:"candidate_id"`
	Sequence    uint64 `json:"sequence"`
	CastAt      string `json:"cast_at"`
}

type UndoResponse struct {
	UndoneAction string `json:"undone_action"`
	CandidateID  string `json:"candidate_id,omitempty"`
	Sequence     uint64 `json:"sequence,omitempty"`
}

type StandingItem struct {
	CandidateID string `json:"candidate_id"`
	DisplayName string `json:"display_name"`
	VoteCount   int    `json:"vote_count"`
	Rank        int    `json:"rank"`
}

type ResultsResponse struct {
	Items      []StandingItem `json:"items"`
	Winner     *StandingItem  `json:"winner,omitempty"`
	TotalVotes int            `json:"total_votes"`
}

type QueueStatsResponse struct {
	Size      int `json:"size"`
	Capacity  int `json:"capacity"`
	Expedited int `json:"expedited"`
}

type CandidateStatsResponse struct {
	Size       int `json:"size"`
	Capacity   int `json:"capacity"`
	TotalVotes int `json:"total_votes"`
}

type VoterTableStatsResponse struct {
	Size           int     `json:"size"`
	Buckets        int     `json:"buckets"`
	LoadFactor     float64 `json:"load_factor"`
	MaxChainLength int     `json:"max_chain_length"`
}

type AuditStatsResponse struct {
	Size    int  `json:"size"`
	IsEmpty bool `json:"is_empty"`
}

type StatsResponse struct {
	Queue      QueueStatsResponse      `json:"queue"`
	Candidates CandidateStatsResponse  `json:"candidate_store"`
	Voters     VoterTableStatsResponse `json:"hash_table"`
	Audit      AuditStatsResponse      `json:"audit_stack"`
}

type AuditTrailItem struct {
	Action      string `json:"action"`
	VoterKey    string `json:"voter_key"`
	CandidateID string `json:"candidate_id,omitempty"`
	Sequence    uint64 `json:"sequence,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type AuditTrailResponse struct {
	Items []AuditTrailItem `json:"items"`
}

type IntakeRequestDTO struct {
	VoterKey  string `json:"voter_key"`
	Payload   string `json:"payload,omitempty"`
	Expedited bool   `json:"expedited,omitempty"`
	Priority  int    `json:"priority,omitempty"`
}

type DrainIntakeRequest struct {
	Limit int `json:"limit,omitempty"`
}

type DrainIntakeResponse struct {
	Processed  int `json:"processed"`
	Registered int `json:"registered"`
	Duplicates int `json:"duplicates"`
}
