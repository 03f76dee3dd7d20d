package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/champdraft/go/internal/draft/round"
	"github.com/mcdev12/champdraft/go/internal/draft/session"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *appFixture) {
	t.Helper()
	f := newAppFixture(t, models.DraftSettings{}, champions(20))
	mux := http.NewServeMux()
	NewService(f.app).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, f
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServiceHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServiceSessionFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	var e ErrorResponse
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/session", nil, &e))
	assert.Equal(t, "no_session", e.Error)

	var snap session.Snapshot
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/session", CreateSessionRequest{Candidates: candidates(6)}, &snap))
	assert.Equal(t, models.SessionStateAwaitingStart, snap.State)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session", nil, &e))
	assert.Equal(t, "session_in_progress", e.Error)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/claim",
		ClaimRequest{ParticipantID: "p1", Item: snap.Items[0].Name}, &e))
	assert.Equal(t, "not_started", e.Error)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/session/start", nil, &snap))
	require.NotNil(t, snap.CurrentParticipant)
	assert.Equal(t, 15, snap.RemainingSeconds)

	var other string
	for _, p := range snap.PickOrder {
		if p.ID != snap.CurrentParticipant.ID {
			other = p.ID
			break
		}
	}
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/claim",
		ClaimRequest{ParticipantID: other, Item: snap.Items[0].Name}, &e))
	assert.Equal(t, "not_your_turn", e.Error)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/claim",
		ClaimRequest{ParticipantID: snap.CurrentParticipant.ID, Item: "Teemo"}, &e))
	assert.Equal(t, "item_not_offered", e.Error)

	var res session.ClaimResult
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/session/claim",
		ClaimRequest{ParticipantID: snap.CurrentParticipant.ID, Item: snap.Items[0].Name}, &res))
	assert.Equal(t, session.ActionClaimed, res.Action)
	assert.False(t, res.Completed)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/winner", WinnerRequest{Side: "team1"}, &e))
	assert.Equal(t, "incomplete_session", e.Error)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/session", nil, &snap))
	assert.Equal(t, 1, snap.TurnIndex)
	assert.Len(t, snap.Selections, 1)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/session/abort", nil, &snap))
	assert.Equal(t, models.SessionStateAborted, snap.State)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/abort", nil, &e))
	assert.Equal(t, "session_aborted", e.Error)
}

func TestServiceWinnerAndStats(t *testing.T) {
	srv, f := newTestServer(t)

	_, err := f.app.CreateSession(t.Context(), nil)
	require.NoError(t, err)
	_, err = f.app.Start()
	require.NoError(t, err)
	playOut(t, f.app)

	var e ErrorResponse
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/session/winner", WinnerRequest{Side: "team3"}, &e))
	assert.Equal(t, "invalid_side", e.Error)

	var res round.Result
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/session/winner", WinnerRequest{Side: "team1"}, &res))
	assert.Equal(t, models.SideTeam1, res.Winner)
	assert.Equal(t, 1, res.Round)

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/session/winner", WinnerRequest{Side: "team1"}, &e))
	assert.Equal(t, "already_resolved", e.Error)

	var st Standings
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/stats", nil, &st))
	assert.Equal(t, 1, st.TotalRounds)
	assert.Len(t, st.Records, 3)
}

func TestServiceBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"malformed create body", http.MethodPost, "/session", "{", http.StatusBadRequest, "bad_request"},
		{"malformed claim body", http.MethodPost, "/session/claim", "not json", http.StatusBadRequest, "bad_request"},
		{"claim without item", http.MethodPost, "/session/claim", ClaimRequest{ParticipantID: "p1"}, http.StatusBadRequest, "bad_request"},
		{"too few candidates", http.MethodPost, "/session", CreateSessionRequest{Candidates: candidates(3)}, http.StatusUnprocessableEntity, "insufficient_candidates"},
		{"winner without session", http.MethodPost, "/session/winner", WinnerRequest{Side: "team1"}, http.StatusNotFound, "no_session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e ErrorResponse
			assert.Equal(t, tt.status, do(t, srv, tt.method, tt.path, tt.body, &e))
			assert.Equal(t, tt.code, e.Error)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestServiceRefreshCatalog(t *testing.T) {
	srv, f := newTestServer(t)

	var body struct {
		Count int           `json:"count"`
		Items []models.Item `json:"items"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/catalog/refresh", nil, &body))
	assert.Equal(t, 20, body.Count)

	f.catalog.items = nil
	var e ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodPost, "/catalog/refresh", nil, &e))
	assert.Equal(t, "no_catalog", e.Error)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", session.ErrItemUnavailable), http.StatusConflict, "item_unavailable"},
		{session.ErrInvalidRoster, http.StatusUnprocessableEntity, "invalid_roster"},
		{fmt.Errorf("%w: save: %w", round.ErrPersist, errCDN), http.StatusInternalServerError, "persist_failed"},
		{errCDN, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
