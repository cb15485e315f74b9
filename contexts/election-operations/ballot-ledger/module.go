package ballotledger

import (
	"log/slog"

	httpadapter "electionledger/contexts/election-operations/ballot-ledger/adapters/http"
	"electionledger/contexts/election-operations/ballot-ledger/adapters/memory"
	"electionledger/contexts/election-operations/ballot-ledger/application/commands"
	"electionledger/contexts/election-operations/ballot-ledger/application/queries"
	"electionledger/contexts/election-operations/ballot-ledger/ports"
)

// CandidateSeed pre-registers a ballot option at session start-up.
type CandidateSeed struct {
	CandidateID string
	DisplayName string
}

type Module struct {
	Handler httpadapter.Handler
	Session *commands.Session
	Store   *memory.Store
}

type Dependencies struct {
	QueueCapacity     int
	CandidateCapacity int
	VoterBuckets      int
	Candidates        []CandidateSeed
	Mirror            ports.Mirror
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) (Module, error) {
	session := commands.NewSession(commands.SessionDeps{
		QueueCapacity:     deps.QueueCapacity,
		CandidateCapacity: deps.CandidateCapacity,
		VoterBuckets:      deps.VoterBuckets,
		Mirror:            deps.Mirror,
		Clock:             deps.Clock,
		IDGen:             deps.IDGen,
		Logger:            deps.Logger,
	})
	for _, seed := range deps.Candidates {
		if err := session.RegisterCandidate(seed.CandidateID, seed.DisplayName); err != nil {
			return Module{}, err
		}
	}
	resultsUseCase := queries.ResultsUseCase{Ledger: session}
	return Module{
		Handler: httpadapter.Handler{
			Session: session,
			Results: resultsUseCase,
			Logger:  deps.Logger,
		},
		Session: session,
	}, nil
}

// NewInMemoryModule wires the session against the in-memory mirror. Used by
// tests and broker-less local runs.
func NewInMemoryModule(candidates []CandidateSeed, logger *slog.Logger) (Module, error) {
	store := memory.NewStore()
	module, err := NewModule(Dependencies{
		Candidates: candidates,
		Mirror:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	if err != nil {
		return Module{}, err
	}
	module.Store = store
	return module, nil
}
