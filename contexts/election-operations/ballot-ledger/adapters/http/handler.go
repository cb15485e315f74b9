package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"electionledger/contexts/election-operations/ballot-ledger/application/commands"
	"electionledger/contexts/election-operations/ballot-ledger/application/queries"
	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	httptransport "electionledger/contexts/election-operations/ballot-ledger/transport/http"
)

type Handler struct {
	Session *commands.Session
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) RegisterVoterHandler(ctx context.Context, req httptransport.RegisterVoterRequest) (httptransport.RegisterVoterResponse, error) {
	if err := h.Session.RegisterVoter(ctx, req.VoterKey); err != nil {
		return httptransport.RegisterVoterResponse{}, err
	}
	return httptransport.RegisterVoterResponse{
		VoterKey:   req.VoterKey,
		Registered: true,
	}, nil
}

func (h Handler) CastVoteHandler(ctx context.Context, req httptransport.CastVoteRequest) (httptransport.ReceiptResponse, error) {
	receipt, err := h.Session.CastVote(ctx, req.VoterKey, req.CandidateID)
	if err != nil {
		return httptransport.ReceiptResponse{}, err
	}
	return httptransport.ReceiptResponse{
		ReceiptID:   receipt.ReceiptID,
		CandidateID: receipt.CandidateID,
		Sequence:    receipt.Sequence,
		CastAt:      receipt.CastAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) UndoHandler(ctx context.Context) (httptransport.UndoResponse, error) {
	entry, err := h.Session.UndoLast(ctx)
	if err != nil {
		return httptransport.UndoResponse{}, err
	}
	return httptransport.UndoResponse{
		UndoneAction: string(entry.Action),
		CandidateID:  entry.CandidateID,
		Sequence:     entry.Sequence,
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	resp := httptransport.ResultsResponse{
		Items:      mapStandings(results.Ranked),
		TotalVotes: results.TotalVotes,
	}
	if results.Winner != nil {
		winner := standingItem(*results.Winner, 1)
		resp.Winner = &winner
	}
	return resp, nil
}

func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.Results.Stats(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}
	return httptransport.StatsResponse{
		Queue: httptransport.QueueStatsResponse{
			Size:      stats.Queue.Size,
			Capacity:  stats.Queue.Capacity,
			Expedited: stats.Queue.Expedited,
		},
		Candidates: httptransport.CandidateStatsResponse{
			Size:       stats.Candidates.Size,
			Capacity:   stats.Candidates.Capacity,
			TotalVotes: stats.Candidates.TotalVotes,
		},
		Voters: httptransport.VoterTableStatsResponse{
			Size:           stats.Voters.Size,
			Buckets:        stats.Voters.Buckets,
			LoadFactor:     stats.Voters.LoadFactor,
			MaxChainLength: stats.Voters.MaxChainLength,
		},
		Audit: httptransport.AuditStatsResponse{
			Size:    stats.Audit.Size,
			IsEmpty: stats.Audit.IsEmpty,
		},
	}, nil
}

// AuditTrailHandler redacts voter keys before they leave the core; the trail
// is for inspection, not identity lookups.
func (h Handler) AuditTrailHandler(ctx context.Context, limit int) (httptransport.AuditTrailResponse, error) {
	entries, err := h.Results.AuditTrail(ctx, limit)
	if err != nil {
		return httptransport.AuditTrailResponse{}, err
	}
	items := make([]httptransport.AuditTrailItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.AuditTrailItem{
			Action:      string(entry.Action),
			VoterKey:    redactKey(entry.VoterKey),
			CandidateID: entry.CandidateID,
			Sequence:    entry.Sequence,
			Timestamp:   entry.Timestamp.Format(time.RFC3339),
		})
	}
	return httptransport.AuditTrailResponse{Items: items}, nil
}

func (h Handler) EnqueueIntakeHandler(_ context.Context, req httptransport.IntakeRequestDTO) error {
	return h.Session.EnqueueIntake(commands.IntakeCommand{
		VoterKey:  req.VoterKey,
		Payload:   req.Payload,
		Expedited: req.Expedited,
		Priority:  req.Priority,
	})
}

func (h Handler) DrainIntakeHandler(ctx context.Context, req httptransport.DrainIntakeRequest) (httptransport.DrainIntakeResponse, error) {
	result, err := h.Session.DrainIntake(ctx, req.Limit)
	if err != nil {
		return httptransport.DrainIntakeResponse{}, err
	}
	return httptransport.DrainIntakeResponse{
		Processed:  result.Processed,
		Registered: result.Registered,
		Duplicates: result.Duplicates,
	}, nil
}

func mapStandings(ranked []entities.CandidateRecord) []httptransport.StandingItem {
	items := make([]httptransport.StandingItem, 0, len(ranked))
	for i, record := range ranked {
		items = append(items, standingItem(record, i+1))
	}
	return items
}

func standingItem(record entities.CandidateRecord, rank int) httptransport.StandingItem {
	return httptransport.StandingItem{
		CandidateID: record.CandidateID,
		DisplayName: record.DisplayName,
		VoteCount:   record.VoteCount,
		Rank:        rank,
	}
}

func redactKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:6] + "***"
}
