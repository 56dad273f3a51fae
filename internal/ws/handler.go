package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/auth"
	"github.com/torchlight-rpg/encounter-backend/internal/engine"
	"github.com/torchlight-rpg/encounter-backend/internal/hub"
	"github.com/torchlight-rpg/encounter-backend/internal/lobby"
	"github.com/torchlight-rpg/encounter-backend/internal/types"
)

// Handler upgrades GET /ws?role=&encounter=&token= and bridges the socket to
// the encounter's lobby. Credentials are checked inside the lobby loop before
// the socket joins the broadcast group; a rejected socket gets one explicit
// error frame and is closed, so the client is not left staring at silence.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := auth.ParseRole(r.URL.Query().Get("role"))
		encounterID := r.URL.Query().Get("encounter")
		token := r.URL.Query().Get("token")
		if !ok || encounterID == "" || token == "" {
			http.Error(w, "missing or bad credentials", http.StatusBadRequest)
			return
		}

		lb := h.Resolve(encounterID)
		if lb == nil {
			http.Error(w, "encounter not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerMessage, 8)
		clientID := randID(6)

		reply := make(chan lobby.ConnectResult, 1)
		lb.Inbox() <- lobby.Connect{
			ClientID: clientID,
			Role:     role,
			Token:    token,
			Outbox:   out,
			Reply:    reply,
		}
		res := <-reply
		if res.Err != nil {
			writeMsg(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "unauthorized"})
			conn.Close(websocket.StatusPolicyViolation, "unauthorized")
			return
		}
		defer func() { lb.Inbox() <- lobby.Leave{ClientID: clientID} }()

		cap := res.Cap
		log.Debug("socket joined",
			zap.String("encounter", encounterID),
			zap.String("client", clientID),
			zap.String("role", string(cap.Role)))

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = writeMsg(ctx, conn, msg)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (lobby.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeMsg(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "bad json"})
				continue
			}

			cmd, ok := toEngineCommand(cm, cap)
			if !ok {
				_ = writeMsg(r.Context(), conn, types.ServerMessage{Type: types.MsgError, Error: "unknown type"})
				continue
			}

			lb.Inbox() <- lobby.FromClient{ClientID: clientID, Cmd: cmd}
		}
	}
}

func toEngineCommand(m types.ClientMessage, cap auth.Capability) (engine.Command, bool) {
	actor := cap.Actor()

	switch m.Type {
	case types.CmdCreatureUpdate:
		if m.CreatureID == "" || m.Patch == nil || m.Patch.Empty() {
			return engine.Command{}, false
		}
		return engine.Command{
			Type:       engine.CmdPatchCreature,
			Actor:      actor,
			CreatureID: m.CreatureID,
			Patch:      *m.Patch,
		}, true
	case types.CmdTurnNext:
		return engine.Command{Type: engine.CmdNextTurn, Actor: actor}, true
	case types.CmdTurnPrev:
		return engine.Command{Type: engine.CmdPrevTurn, Actor: actor}, true
	default:
		return engine.Command{}, false
	}
}

func writeMsg(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
