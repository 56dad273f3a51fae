// Package hub is the process-wide session store: every live encounter lobby,
// keyed by id with a secondary join-code index. A single goroutine owns both
// maps; all access goes through request/reply messages on the inbox.
package hub

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/auth"
	"github.com/torchlight-rpg/encounter-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// CreateEncounter mints id, code and initial DM token and spins up the lobby.
// The passphrase is hashed by the caller so bcrypt never blocks this loop.
type CreateEncounter struct {
	PassHash []byte
	Reply    chan Created
}

type Created struct {
	ID      string
	Code    string
	DMToken string
	Lobby   *lobby.Lobby
	Err     error
}

type GetEncounter struct {
	ID    string
	Reply chan *lobby.Lobby
}

type GetByCode struct {
	Code  string
	Reply chan *lobby.Lobby
}

type ShutdownHub struct{}

func (CreateEncounter) isHubMsg() {}
func (GetEncounter) isHubMsg()    {}
func (GetByCode) isHubMsg()       {}
func (ShutdownHub) isHubMsg()     {}

type Hub struct {
	inbox  chan HubMsg
	byID   map[string]*lobby.Lobby
	byCode map[string]*lobby.Lobby
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		byID:   make(map[string]*lobby.Lobby),
		byCode: make(map[string]*lobby.Lobby),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateEncounter:
				msg.Reply <- h.create(msg.PassHash)

			case GetEncounter:
				msg.Reply <- h.byID[msg.ID] // May be nil

			case GetByCode:
				msg.Reply <- h.byCode[strings.ToUpper(msg.Code)]

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(passHash []byte) Created {
	id, err := auth.NewID()
	if err != nil {
		return Created{Err: err}
	}

	// Codes are only 4 characters; re-roll on the rare collision.
	var code string
	for {
		c, err := auth.NewCode()
		if err != nil {
			return Created{Err: err}
		}
		if h.byCode[c] == nil {
			code = c
			break
		}
		h.log.Warn("join code collision, re-rolling", zap.String("code", c))
	}

	token, err := auth.NewToken()
	if err != nil {
		return Created{Err: err}
	}

	lb := lobby.New(h.ctx, id, code, passHash, token, h.log)
	h.byID[id] = lb
	h.byCode[code] = lb
	h.log.Info("encounter created", zap.String("id", id), zap.String("code", code))

	return Created{ID: id, Code: code, DMToken: token, Lobby: lb}
}

func (h *Hub) shutdown() {
	for _, lb := range h.byID {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.byID)
	clear(h.byCode)
	h.cancel()
}

// Resolve is a convenience wrapper over the GetEncounter round trip used by
// the HTTP and ws layers.
func (h *Hub) Resolve(id string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.inbox <- GetEncounter{ID: id, Reply: reply}
	return <-reply
}

// ResolveByCode looks an encounter up by its join code, case-insensitively.
func (h *Hub) ResolveByCode(code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.inbox <- GetByCode{Code: code, Reply: reply}
	return <-reply
}
