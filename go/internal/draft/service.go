package draft

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcdev12/champdraft/go/internal/draft/round"
	"github.com/mcdev12/champdraft/go/internal/draft/session"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/pool"
	"github.com/mcdev12/champdraft/go/internal/roster"
	"github.com/rs/zerolog/log"
)

// DraftApp defines what the service layer needs from the draft application
type DraftApp interface {
	CreateSession(ctx context.Context, candidates []models.Participant) (session.Snapshot, error)
	Start() (session.Snapshot, error)
	Claim(participantID, item string) (session.ClaimResult, error)
	Abort(reason string) (session.Snapshot, error)
	Snapshot() (session.Snapshot, error)
	DeclareWinner(ctx context.Context, side models.Side) (*round.Result, error)
	Standings(ctx context.Context) (Standings, error)
	RefreshCatalog(ctx context.Context) ([]models.Item, error)
}

// Service exposes the draft app as a JSON HTTP API.
type Service struct {
	app DraftApp
}

// NewService creates a new draft HTTP service
func NewService(app DraftApp) *Service {
	return &Service{app: app}
}

var _ DraftApp = (*App)(nil)

// CreateSessionRequest optionally names the candidates. An empty body uses the roster source.
type CreateSessionRequest struct {
	Candidates []models.Participant `json:"candidates"`
}

type ClaimRequest struct {
	ParticipantID string `json:"participant_id"`
	Item          string `json:"item"`
}

type AbortRequest struct {
	Reason string `json:"reason"`
}

type WinnerRequest struct {
	Side string `json:"side"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Register mounts the routes on mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("POST /session", s.createSession)
	mux.HandleFunc("GET /session", s.getSession)
	mux.HandleFunc("POST /session/start", s.startSession)
	mux.HandleFunc("POST /session/claim", s.claim)
	mux.HandleFunc("POST /session/abort", s.abort)
	mux.HandleFunc("POST /session/winner", s.declareWinner)
	mux.HandleFunc("GET /stats", s.standings)
	mux.HandleFunc("POST /catalog/refresh", s.refreshCatalog)
}

func (s *Service) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.app.CreateSession(r.Context(), req.Candidates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Service) getSession(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.app.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Service) startSession(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.app.Start()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Service) claim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest{err})
		return
	}
	if req.ParticipantID == "" || req.Item == "" {
		writeError(w, badRequest{errors.New("participant_id and item are required")})
		return
	}
	res, err := s.app.Claim(req.ParticipantID, req.Item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) abort(w http.ResponseWriter, r *http.Request) {
	var req AbortRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Reason == "" {
		req.Reason = "aborted by operator"
	}
	snap, err := s.app.Abort(req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Service) declareWinner(w http.ResponseWriter, r *http.Request) {
	var req WinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest{err})
		return
	}
	res, err := s.app.DeclareWinner(r.Context(), models.Side(req.Side))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) standings(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Standings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.RefreshCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// badRequest marks malformed input.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// decodeOptional decodes a JSON body when there is one.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest{err}
}

// statusFor maps an app error to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	if reason := session.RejectReason(err); reason != "" {
		if errors.Is(err, session.ErrInvalidRoster) {
			return http.StatusUnprocessableEntity, reason
		}
		return http.StatusConflict, reason
	}

	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNoSession):
		return http.StatusNotFound, "no_session"
	case errors.Is(err, ErrSessionInProgress):
		return http.StatusConflict, "session_in_progress"
	case errors.Is(err, roster.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity, "insufficient_candidates"
	case errors.Is(err, pool.ErrInsufficientPool):
		return http.StatusUnprocessableEntity, "insufficient_pool"
	case errors.Is(err, round.ErrIncompleteSession):
		return http.StatusConflict, "incomplete_session"
	case errors.Is(err, round.ErrAlreadyResolved):
		return http.StatusConflict, "already_resolved"
	case errors.Is(err, round.ErrInvalidSide):
		return http.StatusBadRequest, "invalid_side"
	case errors.Is(err, round.ErrPersist):
		return http.StatusInternalServerError, "persist_failed"
	case errors.Is(err, ErrNoCatalog):
		return http.StatusServiceUnavailable, "no_catalog"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
