package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	ballotledger "electionledger/contexts/election-operations/ballot-ledger"
	ledgererrors "electionledger/contexts/election-operations/ballot-ledger/domain/errors"
	ledgerhttp "electionledger/contexts/election-operations/ballot-ledger/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	ledger ballotledger.Module
}

func New(ledger ballotledger.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		ledger: ledger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/ledger/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("POST /v1/ledger/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/ledger/undo", s.handleUndo)
	s.mux.HandleFunc("GET /v1/ledger/results", s.handleResults)
	s.mux.HandleFunc("GET /v1/ledger/stats", s.handleStats)
	s.mux.HandleFunc("GET /v1/ledger/audit", s.handleAuditTrail)
	s.mux.HandleFunc("POST /v1/ledger/intake", s.handleEnqueueIntake)
	s.mux.HandleFunc("POST /v1/ledger/intake/drain", s.handleDrainIntake)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.VoterKey) == "" {
		writeLedgerError(w, http.StatusBadRequest, "missing_voter_key", "voter_key is required")
		return
	}

	resp, err := s.ledger.Handler.RegisterVoterHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.VoterKey) == "" || strings.TrimSpace(req.CandidateID) == "" {
		writeLedgerError(w, http.StatusBadRequest, "missing_fields", "voter_key and candidate_id are required")
		return
	}

	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.UndoHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ResultsHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.StatsHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.ledger.Handler.AuditTrailHandler(r.Context(), limit)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnqueueIntake(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.IntakeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.VoterKey) == "" {
		writeLedgerError(w, http.StatusBadRequest, "missing_voter_key", "voter_key is required")
		return
	}

	if err := s.ledger.Handler.EnqueueIntakeHandler(r.Context(), req); err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleDrainIntake(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.DrainIntakeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.ledger.Handler.DrainIntakeHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ledgererrors.ErrVoterNotFound),
		errors.Is(err, ledgererrors.ErrCandidateNotFound),
		errors.Is(err, ledgererrors.ErrKeyNotFound):
		writeLedgerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadyRegistered),
		errors.Is(err, ledgererrors.ErrAlreadyVoted),
		errors.Is(err, ledgererrors.ErrDuplicateID),
		errors.Is(err, ledgererrors.ErrDuplicateKey):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrNothingToUndo),
		errors.Is(err, ledgererrors.ErrEmptyStack),
		errors.Is(err, ledgererrors.ErrEmptyQueue),
		errors.Is(err, ledgererrors.ErrNoCandidates):
		writeLedgerError(w, http.StatusConflict, "nothing_to_do", err.Error())
	case errors.Is(err, ledgererrors.ErrCapacityExceeded):
		writeLedgerError(w, http.StatusTooManyRequests, "capacity_exceeded", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
