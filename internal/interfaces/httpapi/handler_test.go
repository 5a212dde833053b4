package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/inflight"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/workerpool"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
)

var (
	testNow    = time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)
	indAusPick = []string{"ind-bat-01", "ind-bat-02", "ind-wk-01", "aus-bat-01", "ind-bowl-01"}
	engPakPick = []string{"eng-bat-01", "eng-bat-02", "eng-bowl-01", "pak-bat-01", "pak-bowl-01"}
)

const (
	userToken  = "token-alice"
	adminToken = "token-admin"
)

type stubVerifier map[string]user.Principal

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := v[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (o *recordingObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, recordedRequest{method: method, route: route, status: status})
}

type testServer struct {
	handler     http.Handler
	predictions *memory.PredictionRepository
	observer    *recordingObserver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	pool, err := workerpool.New(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	matches := memory.NewMatchRepository(memory.SeedMatches(testNow))
	players := memory.NewPlayerRepository(memory.SeedPlayers(testNow))
	predictions := memory.NewPredictionRepository()
	logger := logging.NewNop()

	handler := NewHandler(
		usecase.NewMatchService(matches, players, nil),
		usecase.NewPredictionService(matches, players, predictions, inflight.NewMemoryGuard(), pool, logger),
		usecase.NewAdminPlayerService(matches, players, predictions, nil, pool, logger),
		usecase.NewDashboardService(matches, players, predictions),
		logger,
	)
	handler.now = func() time.Time { return testNow }

	verifier := stubVerifier{
		userToken:  {UserID: "user-alice", Email: "alice@example.com"},
		adminToken: {UserID: "user-admin", Email: "admin@example.com", IsAdmin: true},
	}
	observer := &recordingObserver{}

	return &testServer{
		handler: NewRouter(handler, verifier, logger, RouterOptions{
			SwaggerEnabled:     true,
			CORSAllowedOrigins: []string{"*"},
			Observer:           observer,
			MetricsHandler:     http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		}),
		predictions: predictions,
		observer:    observer,
	}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader).WithContext(t.Context())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		APIVersion string `json:"apiVersion"`
		Data       T      `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.Equal(t, googleAPIVersion, envelope.APIVersion)
	return envelope.Data
}

func submitBody(ids []string) string {
	return `{"playerIds":["` + strings.Join(ids, `","`) + `"]}`
}

func TestRouter_SystemRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/openapi.yaml", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/matches/{matchID}/prediction")

	rec = srv.do(t, http.MethodGet, "/docs", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fantasy Prediction API Docs")

	rec = srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty token", header: "Bearer   "},
		{name: "unknown token", header: "Bearer nope"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/matches", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_ListMatches(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/matches", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeData[[]matchDTO](t, rec)
	require.Len(t, items, 4)

	states := make(map[string]string, len(items))
	for _, item := range items {
		states[item.ID] = item.State
	}
	assert.Equal(t, "completed", states[memory.MatchIDSouthAfricaNZ])
	assert.Equal(t, "live", states[memory.MatchIDEnglandPakistan])
	assert.Equal(t, "upcoming", states[memory.MatchIDIndiaAustralia])
	assert.True(t, items[0].StartsAt <= items[len(items)-1].StartsAt)
}

func TestRouter_GetUnknownMatch(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/matches/does-not-exist", userToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ListMatchPlayersOnlyCandidates(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/v1/matches/"+memory.MatchIDIndiaAustralia+"/players", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeData[[]candidateDTO](t, rec)
	require.Len(t, items, 8)
	for _, item := range items {
		assert.NotContains(t, []string{"England", "Pakistan", "South Africa", "New Zealand"}, item.Team)
	}
}

func TestRouter_SubmitAndReload(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/matches/" + memory.MatchIDIndiaAustralia + "/prediction"

	rec := srv.do(t, http.MethodPut, path, userToken, submitBody(indAusPick))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	first := decodeData[submitResultDTO](t, rec)
	require.True(t, first.Applied)
	require.NotNil(t, first.Prediction)
	assert.Equal(t, prediction.ID("user-alice", memory.MatchIDIndiaAustralia), first.Prediction.ID)

	rec = srv.do(t, http.MethodGet, path, userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[predictionViewDTO](t, rec)

	got := make([]string, 0, len(view.Prediction.SelectedPlayers))
	for _, s := range view.Prediction.SelectedPlayers {
		got = append(got, s.ID)
	}
	assert.Equal(t, indAusPick, got)
	assert.Equal(t, "live", view.Score.Source)
	assert.Equal(t, 5, view.Score.Total)
	assert.Equal(t, 0, view.Score.Graded)

	second := []string{"ind-bat-01", "ind-bat-02", "ind-wk-01", "aus-bat-01", "aus-bowl-01"}
	rec = srv.do(t, http.MethodPut, path, userToken, submitBody(second))
	require.Equal(t, http.StatusOK, rec.Code)
	resubmitted := decodeData[submitResultDTO](t, rec)
	require.True(t, resubmitted.Applied)
	assert.Equal(t, first.Prediction.ID, resubmitted.Prediction.ID)
	assert.Equal(t, first.Prediction.CreatedAt, resubmitted.Prediction.CreatedAt)

	stored, err := srv.predictions.ListByUser(t.Context(), "user-alice")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRouter_SubmitRefusals(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		matchID    string
		players    []string
		wantReason string
	}{
		{name: "locked match", matchID: memory.MatchIDEnglandPakistan, players: engPakPick, wantReason: usecase.SubmitReasonLocked},
		{name: "short roster", matchID: memory.MatchIDIndiaAustralia, players: indAusPick[:4], wantReason: usecase.SubmitReasonRosterSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPut, "/v1/matches/"+tc.matchID+"/prediction", userToken, submitBody(tc.players))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			result := decodeData[submitResultDTO](t, rec)
			assert.False(t, result.Applied)
			assert.Equal(t, tc.wantReason, result.Reason)
			assert.Nil(t, result.Prediction)
		})
	}

	stored, err := srv.predictions.ListByUser(t.Context(), "user-alice")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRouter_SubmitRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/matches/" + memory.MatchIDIndiaAustralia + "/prediction"

	tests := map[string]string{
		"malformed json":    `{"playerIds":`,
		"unknown field":     `{"playerIds":[],"captain":"ind-bat-01"}`,
		"non candidate":     submitBody([]string{"ind-bat-01", "ind-bat-02", "ind-wk-01", "aus-bat-01", "eng-bat-01"}),
		"duplicate players": submitBody([]string{"ind-bat-01", "ind-bat-01", "ind-wk-01", "aus-bat-01", "ind-bowl-01"}),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPut, path, userToken, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_SelectionSource(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/matches/" + memory.MatchIDIndiaAustralia + "/selection"

	rec := srv.do(t, http.MethodGet, path+"?source=bogus", userToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, path, userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[selectionDTO](t, rec)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Available, 8)
	assert.False(t, view.CanSubmit)
	assert.Nil(t, view.Prediction)

	rec = srv.do(t, http.MethodPut, "/v1/matches/"+memory.MatchIDIndiaAustralia+"/prediction", userToken, submitBody(indAusPick))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, path+"?source=snapshot", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeData[selectionDTO](t, rec)
	assert.Len(t, view.Selected, 5)
	assert.Len(t, view.Available, 3)
	assert.True(t, view.CanSubmit)
	require.NotNil(t, view.Score)
	assert.Equal(t, "snapshot", view.Score.Source)
}

func TestRouter_AdminRoutesRequireAdmin(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/admin/players", userToken, `{"name":"Shubman Gill","team":"India","role":"batsman"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/admin/matches/"+memory.MatchIDIndiaAustralia+"/predictions", userToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminPlayerLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/admin/players", adminToken, `{"id":"ind-bat-09","name":"Shubman Gill","team":"India","role":"batsman"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[playerDTO](t, rec)
	assert.Equal(t, "ind-bat-09", created.ID)
	assert.Empty(t, created.MatchTargets)

	rec = srv.do(t, http.MethodPost, "/v1/admin/players", adminToken, `{"name":"Nobody","team":"India","role":"captain"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/v1/admin/players/ind-bat-09/targets/"+memory.MatchIDIndiaAustralia, adminToken, `{"type":"runs","target":28,"isSelected":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[setTargetResultDTO](t, rec)
	assert.Equal(t, "runs", result.Target.Type)
	assert.Equal(t, 28.0, result.Target.Target)
	assert.Nil(t, result.Target.ActualPoints)

	rec = srv.do(t, http.MethodGet, "/v1/admin/matches/"+memory.MatchIDIndiaAustralia+"/players", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeData[[]adminPlayerDTO](t, rec)
	var found bool
	for _, item := range listed {
		if item.ID == "ind-bat-09" {
			found = true
			require.NotNil(t, item.Target)
			assert.True(t, item.Target.IsSelected)
		}
	}
	assert.True(t, found)

	rec = srv.do(t, http.MethodPut, "/v1/admin/players/ind-bat-09", adminToken, `{"name":"Shubman Gill","team":"India","role":"all-rounder"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "all-rounder", decodeData[playerDTO](t, rec).Role)

	rec = srv.do(t, http.MethodDelete, "/v1/admin/players/ind-bat-09", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/v1/admin/players/ind-bat-09", adminToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AdminOutcomeReachesPrediction(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPut, "/v1/matches/"+memory.MatchIDIndiaAustralia+"/prediction", userToken, submitBody(indAusPick))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPut, "/v1/admin/players/ind-bat-01/targets/"+memory.MatchIDIndiaAustralia, adminToken, `{"type":"runs","target":35,"actualPoints":35,"isSelected":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeData[setTargetResultDTO](t, rec).Propagated)

	rec = srv.do(t, http.MethodGet, "/v1/admin/matches/"+memory.MatchIDIndiaAustralia+"/predictions", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeData[[]predictionViewDTO](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].Score.Graded)
	assert.Equal(t, 1, views[0].Score.Correct)

	rec = srv.do(t, http.MethodGet, "/v1/dashboard", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decodeData[dashboardDTO](t, rec)
	assert.Equal(t, 1, dashboard.Predictions)
	assert.Equal(t, 1, dashboard.CorrectPicks)
	require.NotNil(t, dashboard.NextMatch)
	assert.Equal(t, memory.MatchIDIndiaAustralia, dashboard.NextMatch.ID)
}

func TestRouter_AdminClearOutcome(t *testing.T) {
	srv := newTestServer(t)
	path := "/v1/admin/players/rsa-bat-01/targets/" + memory.MatchIDSouthAfricaNZ

	rec := srv.do(t, http.MethodPut, path, adminToken, `{"type":"runs","target":30,"actualPoints":12,"clearActualPoints":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, path, adminToken, `{"type":"runs","target":30,"clearActualPoints":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeData[setTargetResultDTO](t, rec)
	assert.Nil(t, result.Target.ActualPoints)
	assert.Equal(t, 0, result.Propagated)
}

func TestRouter_AdminCreateMatchAndStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/v1/admin/matches", adminToken, `{"id":"nz-pak-01","team1":"New Zealand","team2":"Pakistan","venue":"Eden Park","startsAt":"2026-04-12T07:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[matchDTO](t, rec)
	assert.Equal(t, "scheduled", created.Status)
	assert.Equal(t, "upcoming", created.State)
	assert.False(t, created.Locked)

	rec = srv.do(t, http.MethodPost, "/v1/admin/matches", adminToken, `{"team1":"New Zealand","team2":"Pakistan","startsAt":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/v1/admin/matches/"+memory.MatchIDEnglandPakistan+"/status", adminToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeData[matchDTO](t, rec)
	assert.Equal(t, "completed", updated.State)
	assert.True(t, updated.Locked)
}

func TestRouter_MetricsUseRoutePattern(t *testing.T) {
	srv := newTestServer(t)

	srv.do(t, http.MethodGet, "/v1/matches/"+memory.MatchIDIndiaAustralia, userToken, "")
	srv.do(t, http.MethodGet, "/nope", "", "")

	srv.observer.mu.Lock()
	defer srv.observer.mu.Unlock()
	require.Len(t, srv.observer.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, route: "GET /v1/matches/{matchID}", status: http.StatusOK}, srv.observer.requests[0])
	assert.Equal(t, http.StatusNotFound, srv.observer.requests[1].status)
	assert.Empty(t, srv.observer.requests[1].route)
}
