// Package lobby runs one goroutine per encounter. The loop owns every
// mutable field of the encounter (roster, turn cursor, claims, DM token),
// so commands from any surface are applied strictly in arrival order and no
// locking is needed anywhere else.
package lobby

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/auth"
	"github.com/torchlight-rpg/encounter-backend/internal/engine"
	"github.com/torchlight-rpg/encounter-backend/internal/types"
)

type Msg interface{ isLobbyMsg() }

// Connect validates a socket credential and, on success, registers the outbox
// and queues an immediate full snapshot on it.
type Connect struct {
	ClientID string
	Role     auth.Role
	Token    string
	Outbox   chan types.ServerMessage
	Reply    chan ConnectResult
}

func (Connect) isLobbyMsg() {}

type ConnectResult struct {
	Cap auth.Capability
	Err error
}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// FromClient carries one engine command from a connected socket. The
// capability was bound at connect time; the command's Actor is derived from
// it by the ws layer.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// Unlock re-authenticates a DM by passphrase and rotates the DM token,
// invalidating every previously issued one.
type Unlock struct {
	Pass  string
	Reply chan UnlockResult
}

func (Unlock) isLobbyMsg() {}

type UnlockResult struct {
	DMToken string
	Code    string
	Err     error
}

// ClaimCreature is the player join flow: code check, one-shot claim, token
// mint. The claim is permanent for the life of the encounter.
type ClaimCreature struct {
	Code       string
	CreatureID string
	PlayerName string
	Reply      chan ClaimResult
}

func (ClaimCreature) isLobbyMsg() {}

type ClaimResult struct {
	EncounterID string
	PlayerToken string
	Err         error
}

// ReplaceRoster is the DM-token-gated bulk roster replace from the HTTP path.
type ReplaceRoster struct {
	DMToken   string
	Creatures []engine.Combatant
	Reply     chan ReplaceResult
}

func (ReplaceRoster) isLobbyMsg() {}

type ReplaceResult struct {
	Count int
	Err   error
}

// GetSnapshot serves the read-only HTTP snapshot endpoints. When RequireDM is
// set (snapshot reads configured private) the token must match.
type GetSnapshot struct {
	RequireDM bool
	DMToken   string
	Reply     chan SnapshotResult
}

func (GetSnapshot) isLobbyMsg() {}

type SnapshotResult struct {
	Snap types.Snapshot
	Err  error
}

// GetState is a test-only hook mirroring internal state without data races.
type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	NumClients int
	State      engine.State
	ClaimNames map[string]string
}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type Lobby struct {
	id       string
	code     string
	passHash []byte
	dmToken  string
	claims   map[string]auth.Claim

	inbox   chan Msg
	state   engine.State
	clients map[string]chan types.ServerMessage
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, id, code string, passHash []byte, dmToken string, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		id:       id,
		code:     code,
		passHash: passHash,
		dmToken:  dmToken,
		claims:   make(map[string]auth.Claim),
		inbox:    make(chan Msg, 64),
		state:    engine.NewState(),
		clients:  make(map[string]chan types.ServerMessage),
		log:      log.With(zap.String("encounter", id)),
		ctx:      ctx,
		cancel:   cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) ID() string   { return l.id }
func (l *Lobby) Code() string { return l.code }

// Inbox exposes the message channel to the ws/http layers and tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Connect:
				cap, err := l.authenticate(msg.Role, msg.Token)
				if err != nil {
					msg.Reply <- ConnectResult{Err: err}
					break
				}
				l.clients[msg.ClientID] = msg.Outbox
				snap := l.snapshot()
				msg.Outbox <- types.ServerMessage{Type: types.MsgEncounterState, State: &snap}
				msg.Reply <- ConnectResult{Cap: cap}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				events, newState, err := engine.Apply(l.state, msg.Cmd)
				if err != nil {
					l.sendTo(msg.ClientID, types.ServerMessage{Type: types.MsgError, Error: err.Error()})
					break
				}
				l.state = newState
				for _, ev := range events {
					l.broadcast(l.toServerMessage(ev))
				}

			case Unlock:
				if !auth.CheckPassphrase(l.passHash, msg.Pass) {
					msg.Reply <- UnlockResult{Err: auth.ErrBadPassphrase}
					break
				}
				token, err := auth.NewToken()
				if err != nil {
					msg.Reply <- UnlockResult{Err: err}
					break
				}
				l.dmToken = token
				l.log.Info("dm token rotated")
				msg.Reply <- UnlockResult{DMToken: token, Code: l.code}

			case ClaimCreature:
				msg.Reply <- l.claim(msg)

			case ReplaceRoster:
				msg.Reply <- l.replaceRoster(msg)

			case GetSnapshot:
				if msg.RequireDM && !auth.TokenEqual(msg.DMToken, l.dmToken) {
					msg.Reply <- SnapshotResult{Err: auth.ErrBadToken}
					break
				}
				msg.Reply <- SnapshotResult{Snap: l.snapshot()}

			case GetState:
				names := make(map[string]string, len(l.claims))
				for cid, c := range l.claims {
					names[cid] = c.PlayerName
				}
				msg.Reply <- View{
					NumClients: len(l.clients),
					State:      l.state,
					ClaimNames: names,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// authenticate maps a connect-time credential to a capability. Reject-early:
// nothing is read or joined before the token checks out.
func (l *Lobby) authenticate(role auth.Role, token string) (auth.Capability, error) {
	switch role {
	case auth.RoleDM:
		if !auth.TokenEqual(token, l.dmToken) {
			return auth.Capability{}, auth.ErrBadToken
		}
		return auth.DMCapability(), nil

	case auth.RolePlayer:
		for cid, claim := range l.claims {
			if auth.TokenEqual(token, claim.PlayerToken) {
				return auth.PlayerCapability(cid), nil
			}
		}
		return auth.Capability{}, auth.ErrBadToken

	default:
		return auth.Capability{}, auth.ErrUnknownRole
	}
}

func (l *Lobby) claim(msg ClaimCreature) ClaimResult {
	if !codeEqual(msg.Code, l.code) {
		return ClaimResult{Err: auth.ErrBadCode}
	}
	if _, ok := engine.FindCreature(l.state, msg.CreatureID); !ok {
		return ClaimResult{Err: engine.ErrCreatureNotFound}
	}
	if _, taken := l.claims[msg.CreatureID]; taken {
		return ClaimResult{Err: auth.ErrAlreadyClaimed}
	}

	token, err := auth.NewToken()
	if err != nil {
		return ClaimResult{Err: err}
	}

	name := msg.PlayerName
	if name == "" {
		name = "Player"
	}
	l.claims[msg.CreatureID] = auth.Claim{PlayerName: name, PlayerToken: token}
	l.log.Info("creature claimed", zap.String("creature", msg.CreatureID), zap.String("player", name))

	l.broadcast(types.ServerMessage{
		Type:  types.MsgCreatureClaim,
		Claim: &types.ClaimEvent{CreatureID: msg.CreatureID, PlayerName: name},
	})
	return ClaimResult{EncounterID: l.id, PlayerToken: token}
}

func (l *Lobby) replaceRoster(msg ReplaceRoster) ReplaceResult {
	if !auth.TokenEqual(msg.DMToken, l.dmToken) {
		return ReplaceResult{Err: auth.ErrBadToken}
	}

	creatures := make([]engine.Combatant, len(msg.Creatures))
	copy(creatures, msg.Creatures)
	for i := range creatures {
		if creatures[i].ID != "" {
			continue
		}
		id, err := auth.NewID()
		if err != nil {
			return ReplaceResult{Err: err}
		}
		creatures[i].ID = id
	}

	events, newState, err := engine.Apply(l.state, engine.Command{
		Type:      engine.CmdReplaceRoster,
		Actor:     engine.Actor{DM: true},
		Creatures: creatures,
	})
	if err != nil {
		return ReplaceResult{Err: err}
	}
	l.state = newState
	for _, ev := range events {
		l.broadcast(l.toServerMessage(ev))
	}
	return ReplaceResult{Count: len(newState.Creatures)}
}

// snapshot builds the redacted read view. Tokens stay behind: claims are
// reduced to player names and the pass hash never leaves the struct.
func (l *Lobby) snapshot() types.Snapshot {
	claims := make(map[string]types.ClaimView, len(l.claims))
	for cid, c := range l.claims {
		claims[cid] = types.ClaimView{PlayerName: c.PlayerName}
	}
	return types.Snapshot{
		ID:        l.id,
		Code:      l.code,
		Round:     l.state.Round,
		TurnIndex: l.state.TurnIndex,
		Creatures: l.state.Creatures,
		Claims:    claims,
	}
}

func (l *Lobby) toServerMessage(ev engine.Event) types.ServerMessage {
	switch ev.Type {
	case engine.EvtRosterReplaced:
		snap := l.snapshot()
		return types.ServerMessage{Type: types.MsgEncounterState, State: &snap}
	case engine.EvtCreatureUpdated:
		return types.ServerMessage{
			Type:   types.MsgCreatureUpdate,
			Update: &types.CreatureUpdate{CreatureID: ev.CreatureID, Patch: ev.Patch},
		}
	case engine.EvtTurnChanged:
		return types.ServerMessage{
			Type: types.MsgTurnState,
			Turn: &types.TurnState{Round: ev.Round, TurnIndex: ev.TurnIndex},
		}
	default:
		return types.ServerMessage{Type: types.MsgError, Error: "unknown event"}
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	for id, ch := range l.clients {
		select {
		case ch <- msg:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(l.clients, id)
			l.log.Warn("dropped slow client", zap.String("client", id))
		}
	}
}

func (l *Lobby) sendTo(clientID string, msg types.ServerMessage) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		close(ch)
		delete(l.clients, clientID)
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more events
		delete(l.clients, id)
	}
	l.cancel()
}

// codeEqual: codes are stored uppercase but clients type them however.
func codeEqual(got, want string) bool {
	return strings.EqualFold(got, want)
}
