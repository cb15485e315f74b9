package memory

import (
	"encoding/json"

	"electionledger/contexts/election-operations/ballot-ledger/ports"
)

// newLedgerEnvelope builds the canonical envelope for a mirrored mutation.
// Voter keys are partition keys only; the event payload carries no PII beyond
// the already-opaque key.
func newLedgerEnvelope(eventID string, mutation ports.MutationDescriptor) (ports.EventEnvelope, error) {
	data := map[string]any{
		"kind":         string(mutation.Kind),
		"voter_key":    mutation.VoterKey,
		"candidate_id": mutation.CandidateID,
		"has_voted":    mutation.HasVoted,
		"vote_delta":   mutation.VoteDelta,
		"receipt_id":   mutation.ReceiptID,
		"sequence":     mutation.Sequence,
	}
	if mutation.UndoneAction != "" {
		data["undone_action"] = string(mutation.UndoneAction)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        ports.EventTypeFor(mutation.Kind),
		OccurredAt:       mutation.OccurredAt.UTC(),
		SourceService:    "ballot-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "voter_key",
		PartitionKey:     mutation.VoterKey,
		Data:             payload,
	}, nil
}
