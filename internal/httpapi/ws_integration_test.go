package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/torchlight-rpg/encounter-backend/internal/engine"
	"github.com/torchlight-rpg/encounter-backend/internal/types"
)

func dialWS(t *testing.T, srv *httptest.Server, role, encounterID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/ws?role=" + role + "&encounter=" + encounterID + "&token=" + token

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

// Full scenario: create, roster, claim, patch over the socket, advance the
// turn, with DM and player views staying consistent throughout.
func TestEndToEnd_PatchAndTurnFanOut(t *testing.T) {
	srv := newTestServer(t, true)

	enc := createEncounter(t, srv, "secret123")
	setRoster(t, srv, enc, map[string]any{"id": "jeff", "name": "Jeff", "total_hp": 52, "current_hp": 52})

	resp := postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/join",
		map[string]string{"code": enc.Code, "creatureId": "jeff", "playerName": "Sam"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeJSON[map[string]string](t, resp)
	playerToken := joined["playerToken"]

	dm := dialWS(t, srv, "dm", enc.ID, enc.DMToken)
	player := dialWS(t, srv, "player", enc.ID, playerToken)

	// Both newcomers get a full snapshot first.
	for _, conn := range []*websocket.Conn{dm, player} {
		snap := readMsg(t, conn)
		require.Equal(t, types.MsgEncounterState, snap.Type)
		require.NotNil(t, snap.State)
		require.Len(t, snap.State.Creatures, 1)
		require.Equal(t, 52, snap.State.Creatures[0].CurrentHP)
		require.Equal(t, "Sam", snap.State.Claims["jeff"].PlayerName)
	}

	// Player drops Jeff to 40; both views get the authoritative echo.
	sendMsg(t, player, types.ClientMessage{
		Type:       types.CmdCreatureUpdate,
		CreatureID: "jeff",
		Patch:      &engine.Patch{CurrentHP: engine.IntPtr(40)},
	})
	for _, conn := range []*websocket.Conn{dm, player} {
		update := readMsg(t, conn)
		require.Equal(t, types.MsgCreatureUpdate, update.Type)
		require.NotNil(t, update.Update)
		require.Equal(t, "jeff", update.Update.CreatureID)
		require.NotNil(t, update.Update.Patch.CurrentHP)
		require.Equal(t, 40, *update.Update.Patch.CurrentHP)
	}

	// DM advances the turn; roster length 1 wraps straight into round 2.
	sendMsg(t, dm, types.ClientMessage{Type: types.CmdTurnNext})
	for _, conn := range []*websocket.Conn{dm, player} {
		turn := readMsg(t, conn)
		require.Equal(t, types.MsgTurnState, turn.Type)
		require.NotNil(t, turn.Turn)
		require.Equal(t, 2, turn.Turn.Round)
		require.Equal(t, 0, turn.Turn.TurnIndex)
	}
}

func TestWS_PlayerCannotAdvanceTurn(t *testing.T) {
	srv := newTestServer(t, true)

	enc := createEncounter(t, srv, "secret123")
	setRoster(t, srv, enc, map[string]any{"id": "jeff", "name": "Jeff", "total_hp": 52, "current_hp": 52})

	resp := postJSON(t, srv.URL+"/api/encounter/"+enc.ID+"/join",
		map[string]string{"code": enc.Code, "creatureId": "jeff", "playerName": "Sam"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeJSON[map[string]string](t, resp)

	player := dialWS(t, srv, "player", enc.ID, joined["playerToken"])
	_ = readMsg(t, player) // join snapshot

	sendMsg(t, player, types.ClientMessage{Type: types.CmdTurnNext})
	msg := readMsg(t, player)
	require.Equal(t, types.MsgError, msg.Type)
}

func TestWS_RejectedSocketGetsErrorFrame(t *testing.T) {
	srv := newTestServer(t, true)
	enc := createEncounter(t, srv, "secret123")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/ws?role=dm&encounter=" + enc.ID + "&token=stale"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// One explicit rejection frame, then the server closes.
	msg := readMsg(t, conn)
	require.Equal(t, types.MsgError, msg.Type)
	require.Equal(t, "unauthorized", msg.Error)

	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	_, _, err = conn.Read(readCtx)
	require.Error(t, err)
}

func TestWS_UnknownEncounterIs404(t *testing.T) {
	srv := newTestServer(t, true)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?role=dm&encounter=ghost&token=x"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
