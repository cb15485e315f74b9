package queries

import (
	"context"

	"electionledger/contexts/election-operations/ballot-ledger/domain/entities"
	"electionledger/contexts/election-operations/ballot-ledger/ports"
)

// ResultsUseCase serves the read side of the ledger. All reads delegate to
// the session's candidate store and diagnostics; nothing here mutates.
type ResultsUseCase struct {
	Ledger ports.LedgerReader
}

func (uc ResultsUseCase) Results(_ context.Context) (entities.TallyResults, error) {
	return uc.Ledger.Results(), nil
}

func (uc ResultsUseCase) Stats(_ context.Context) (entities.LedgerStats, error) {
	return uc.Ledger.Stats(), nil
}

func (uc ResultsUseCase) AuditTrail(_ context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.Ledger.AuditTrail(limit), nil
}
