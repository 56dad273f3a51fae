package types

import "github.com/torchlight-rpg/encounter-backend/internal/engine"

// Server -> client message types.
const (
	MsgEncounterState = "encounter:state"
	MsgCreatureUpdate = "creature:update"
	MsgTurnState      = "turn:state"
	MsgCreatureClaim  = "creature:claim"
	MsgError          = "error"
)

// Client -> server message types.
const (
	CmdCreatureUpdate = "creature:update"
	CmdTurnNext       = "turn:next"
	CmdTurnPrev       = "turn:prev"
)

type ClientMessage struct {
	Type       string        `json:"type"`
	CreatureID string        `json:"creatureId,omitempty"`
	Patch      *engine.Patch `json:"patch,omitempty"`
}

type ServerMessage struct {
	Type   string          `json:"type"`
	State  *Snapshot       `json:"state,omitempty"`
	Update *CreatureUpdate `json:"update,omitempty"`
	Turn   *TurnState      `json:"turn,omitempty"`
	Claim  *ClaimEvent     `json:"claim,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Snapshot is the full token-redacted read view of one encounter. Claims are
// reduced to player names before anything reaches the wire.
type Snapshot struct {
	ID        string               `json:"id"`
	Code      string               `json:"code"`
	Round     int                  `json:"round"`
	TurnIndex int                  `json:"turnIndex"`
	Creatures []engine.Combatant   `json:"creatures"`
	Claims    map[string]ClaimView `json:"claims"`
}

type ClaimView struct {
	PlayerName string `json:"playerName"`
}

type CreatureUpdate struct {
	CreatureID string       `json:"creatureId"`
	Patch      engine.Patch `json:"patch"`
}

type TurnState struct {
	Round     int `json:"round"`
	TurnIndex int `json:"turnIndex"`
}

type ClaimEvent struct {
	CreatureID string `json:"creatureId"`
	PlayerName string `json:"playerName"`
}
