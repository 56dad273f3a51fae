package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/config"
	"github.com/torchlight-rpg/encounter-backend/internal/hub"
	"github.com/torchlight-rpg/encounter-backend/internal/types"
)

func newTestServer(t *testing.T, public bool) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, zap.NewNop())
	cfg := config.Config{Addr: ":0", MediaDir: t.TempDir(), PublicSnapshots: public}
	srv := httptest.NewServer(SetupRoutes(h, cfg, nil, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type createdEncounter struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	DMToken string `json:"dmToken"`
}

func createEncounter(t *testing.T, srv *httptest.Server, pass string) createdEncounter {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/encounter", map[string]string{"dmPass": pass})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeJSON[createdEncounter](t, resp)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Code, 4)
	require.NotEmpty(t, created.DMToken)
	return created
}

func setRoster(t *testing.T, srv *httptest.Server, enc createdEncounter, creatures ...map[string]any) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/creatures", map[string]any{
		"dmToken":   enc.DMToken,
		"creatures": creatures,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateEncounter_RequiresPass(t *testing.T) {
	srv := newTestServer(t, true)

	resp := postJSON(t, srv.URL+"/api/encounter", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUnlock_RotatesToken(t *testing.T) {
	srv := newTestServer(t, true)
	enc := createEncounter(t, srv, "secret123")

	resp := postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/unlock", map[string]string{"dmPass": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unlocked := decodeJSON[map[string]string](t, resp)
	require.Equal(t, enc.Code, unlocked["code"])
	require.NotEmpty(t, unlocked["dmToken"])
	require.NotEqual(t, enc.DMToken, unlocked["dmToken"])

	// The creation-time token is now stale for privileged calls.
	resp = postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/creatures", map[string]any{
		"dmToken":   enc.DMToken,
		"creatures": []map[string]any{},
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	enc.DMToken = unlocked["dmToken"]
	setRoster(t, srv, enc)
}

func TestUnlock_Failures(t *testing.T) {
	srv := newTestServer(t, true)
	enc := createEncounter(t, srv, "secret123")

	resp := postJSON(t, srv.URL+"/api/encounter/ghost/unlock", map[string]string{"dmPass": "secret123"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/unlock", map[string]string{"dmPass": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSnapshot_PublicReads(t *testing.T) {
	srv := newTestServer(t, true)
	enc := createEncounter(t, srv, "secret123")
	setRoster(t, srv, enc, map[string]any{"name": "Jeff", "total_hp": 52, "current_hp": 52})

	resp, err := http.Get(srv.URL + "/api/encounter/" + enc.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeJSON[types.Snapshot](t, resp)
	require.Equal(t, enc.ID, snap.ID)
	require.Equal(t, 1, snap.Round)
	require.Len(t, snap.Creatures, 1)
	require.Equal(t, "Jeff", snap.Creatures[0].Name)

	// Same visibility by code, case-insensitively.
	resp, err = http.Get(srv.URL + "/api/encounter/code/" + enc.Code)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byCode := decodeJSON[types.Snapshot](t, resp)
	require.Equal(t, enc.ID, byCode.ID)

	resp, err = http.Get(srv.URL + "/api/encounter/ghost")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSnapshot_PrivatePolicyRequiresToken(t *testing.T) {
	srv := newTestServer(t, false)
	enc := createEncounter(t, srv, "secret123")

	resp, err := http.Get(srv.URL + "/api/encounter/" + enc.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/encounter/"+enc.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", enc.DMToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestJoin_FlowAndFailures(t *testing.T) {
	srv := newTestServer(t, true)
	enc := createEncounter(t, srv, "secret123")
	setRoster(t, srv, enc, map[string]any{"id": "jeff", "name": "Jeff", "total_hp": 52, "current_hp": 52})

	joinURL := srv.URL + "/api/encounter/" + enc.ID + "/join"

	resp := postJSON(t, joinURL, map[string]string{"code": "XXXX", "creatureId": "jeff", "playerName": "Sam"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, joinURL, map[string]string{"code": enc.Code, "creatureId": "ghost", "playerName": "Sam"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, joinURL, map[string]string{"code": enc.Code, "creatureId": "jeff", "playerName": "Sam"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeJSON[map[string]string](t, resp)
	require.Equal(t, enc.ID, joined["encounterId"])
	require.NotEmpty(t, joined["playerToken"])

	resp = postJSON(t, joinURL, map[string]string{"code": enc.Code, "creatureId": "jeff", "playerName": "Alex"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Claim names show up in the snapshot, tokens never do.
	getResp, err := http.Get(srv.URL + "/api/encounter/" + enc.ID)
	require.NoError(t, err)
	snap := decodeJSON[types.Snapshot](t, getResp)
	require.Equal(t, "Sam", snap.Claims["jeff"].PlayerName)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, true)
	resp, err := http.Get(srv.URL + "/api/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
