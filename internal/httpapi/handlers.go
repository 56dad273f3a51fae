package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/auth"
	"github.com/torchlight-rpg/encounter-backend/internal/engine"
	"github.com/torchlight-rpg/encounter-backend/internal/hub"
	"github.com/torchlight-rpg/encounter-backend/internal/lobby"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CreateEncounter: POST /api/encounter {dmPass} -> 201 {id, code, dmToken}.
// bcrypt runs here, in the request goroutine, so hashing never stalls the
// hub or any lobby loop.
func CreateEncounter(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DMPass string `json:"dmPass"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DMPass == "" {
			writeError(w, http.StatusBadRequest, "dmPass required")
			return
		}

		hash, err := auth.HashPassphrase(body.DMPass)
		if err != nil {
			log.Error("passphrase hash failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		reply := make(chan hub.Created, 1)
		h.Inbox() <- hub.CreateEncounter{PassHash: hash, Reply: reply}
		created := <-reply
		if created.Err != nil {
			log.Error("encounter create failed", zap.Error(created.Err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"id":      created.ID,
			"code":    created.Code,
			"dmToken": created.DMToken,
		})
	}
}

// UnlockEncounter: POST /api/encounter/{id}/unlock {dmPass} -> {dmToken, code}.
// Success rotates the DM token; every previously issued one goes stale.
func UnlockEncounter(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := h.Resolve(chi.URLParam(r, "id"))
		if lb == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var body struct {
			DMPass string `json:"dmPass"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		reply := make(chan lobby.UnlockResult, 1)
		lb.Inbox() <- lobby.Unlock{Pass: body.DMPass, Reply: reply}
		res := <-reply
		if res.Err != nil {
			// Deliberately generic: no hint whether the pass or the
			// encounter was the problem.
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"dmToken": res.DMToken, "code": res.Code})
	}
}

// GetEncounter: GET /api/encounter/{id} -> snapshot. Reads are public unless
// the deployment flips the policy flag, in which case the current DM token
// must ride along in the Authorization header or ?dmToken=.
func GetEncounter(h *hub.Hub, public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSnapshot(w, r, h.Resolve(chi.URLParam(r, "id")), public)
	}
}

// GetEncounterByCode: GET /api/encounter/code/{code} -> snapshot, matched
// case-insensitively.
func GetEncounterByCode(h *hub.Hub, public bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveSnapshot(w, r, h.ResolveByCode(chi.URLParam(r, "code")), public)
	}
}

func serveSnapshot(w http.ResponseWriter, r *http.Request, lb *lobby.Lobby, public bool) {
	if lb == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("dmToken")
	}

	reply := make(chan lobby.SnapshotResult, 1)
	lb.Inbox() <- lobby.GetSnapshot{RequireDM: !public, DMToken: token, Reply: reply}
	res := <-reply
	if res.Err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, res.Snap)
}

// ReplaceCreatures: POST /api/encounter/{id}/creatures {dmToken, creatures[]}
// -> {ok, count}. Full replace-and-resort; claims and the round counter are
// untouched.
func ReplaceCreatures(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := h.Resolve(chi.URLParam(r, "id"))
		if lb == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var body struct {
			DMToken   string             `json:"dmToken"`
			Creatures []engine.Combatant `json:"creatures"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}

		reply := make(chan lobby.ReplaceResult, 1)
		lb.Inbox() <- lobby.ReplaceRoster{DMToken: body.DMToken, Creatures: body.Creatures, Reply: reply}
		res := <-reply
		if res.Err != nil {
			if errors.Is(res.Err, auth.ErrBadToken) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": res.Count})
	}
}

// JoinEncounter: POST /api/encounter/{id}/join {code, creatureId, playerName}
// -> {encounterId, playerToken}. The one and only place player tokens are
// minted; a creature can be claimed exactly once, forever.
func JoinEncounter(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := h.Resolve(chi.URLParam(r, "id"))
		if lb == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		var body struct {
			Code       string `json:"code"`
			CreatureID string `json:"creatureId"`
			PlayerName string `json:"playerName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
			writeError(w, http.StatusUnauthorized, "bad code")
			return
		}

		reply := make(chan lobby.ClaimResult, 1)
		lb.Inbox() <- lobby.ClaimCreature{
			Code:       body.Code,
			CreatureID: body.CreatureID,
			PlayerName: body.PlayerName,
			Reply:      reply,
		}
		res := <-reply
		if res.Err != nil {
			switch {
			case errors.Is(res.Err, auth.ErrBadCode):
				writeError(w, http.StatusUnauthorized, "bad code")
			case errors.Is(res.Err, engine.ErrCreatureNotFound):
				writeError(w, http.StatusBadRequest, "creature not found")
			case errors.Is(res.Err, auth.ErrAlreadyClaimed):
				writeError(w, http.StatusConflict, "already claimed")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"encounterId": res.EncounterID,
			"playerToken": res.PlayerToken,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
