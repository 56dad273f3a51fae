// Package auth holds the credential primitives for an encounter: the bcrypt
// passphrase hash guarding DM unlock, the bearer tokens minted for DM and
// player sessions, and the capability a validated credential resolves to.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	"github.com/torchlight-rpg/encounter-backend/internal/engine"
)

var ErrBadPassphrase = errors.New("bad passphrase")
var ErrBadToken = errors.New("bad token")
var ErrBadCode = errors.New("bad join code")
var ErrAlreadyClaimed = errors.New("creature already claimed")
var ErrUnknownRole = errors.New("unknown role")

type Role string

const (
	RoleDM     Role = "dm"
	RolePlayer Role = "player"
)

func ParseRole(s string) (Role, bool) {
	switch s {
	case "dm":
		return RoleDM, true
	case "player":
		return RolePlayer, true
	default:
		return "", false
	}
}

// Claim is the permanent binding of a player to one creature. The token is
// the only credential that player will ever hold; it never leaves the server
// except in the join response.
type Claim struct {
	PlayerName  string
	PlayerToken string
}

// Capability is what the gate hands back once a credential checks out: the
// role plus the set of creature ids the holder may mutate. For a DM the set
// is empty and irrelevant.
type Capability struct {
	Role        Role
	CreatureIDs map[string]bool
}

func DMCapability() Capability {
	return Capability{Role: RoleDM}
}

func PlayerCapability(creatureID string) Capability {
	return Capability{Role: RolePlayer, CreatureIDs: map[string]bool{creatureID: true}}
}

func (c Capability) Actor() engine.Actor {
	return engine.Actor{DM: c.Role == RoleDM, Creatures: c.CreatureIDs}
}

const bcryptCost = 10

func HashPassphrase(pass string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pass), bcryptCost)
}

func CheckPassphrase(hash []byte, pass string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
}

// TokenEqual compares bearer tokens in constant time. Rotation already limits
// the window, but there is no reason to hand out a timing oracle.
func TokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

const (
	idCharset   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	idLength    = 8
	codeLength  = 4
	tokenLength = 24
)

// NewID mints an encounter or combatant id.
func NewID() (string, error) { return randString(idLength, idCharset) }

// NewCode mints a 4-character human-shareable join code.
func NewCode() (string, error) { return randString(codeLength, codeCharset) }

// NewToken mints a DM or player bearer token.
func NewToken() (string, error) { return randString(tokenLength, idCharset) }

func randString(length int, charset string) (string, error) {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		out[i] = charset[num.Int64()]
	}
	return string(out), nil
}
