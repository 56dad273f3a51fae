package engine

import (
	"errors"
	"slices"
	"sort"
)

var ErrDMOnly = errors.New("requires dm role")
var ErrNotOwner = errors.New("creature not owned by actor")
var ErrCreatureNotFound = errors.New("creature not found")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CreatureType string

const (
	TypePC      CreatureType = "PC"
	TypeNPC     CreatureType = "NPC"
	TypeMonster CreatureType = "Monster"
)

type Alignment string

const (
	AlignGood    Alignment = "Good"
	AlignNeutral Alignment = "Neutral"
	AlignEvil    Alignment = "Evil"
)

type Combatant struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       CreatureType `json:"type"`
	Alignment  Alignment    `json:"alignment"`
	Initiative int          `json:"initiative"`
	TotalHP    int          `json:"total_hp"`
	CurrentHP  int          `json:"current_hp"`
	TempHP     int          `json:"temp_hp"`
	Conditions []string     `json:"conditions"`
}

// Patch is a partial update to one combatant. Nil fields are left untouched;
// Conditions is a wholesale replace when present, never a merge. It is a
// pointer so that clearing every condition still shows up on the wire.
type Patch struct {
	CurrentHP  *int       `json:"current_hp,omitempty"`
	TempHP     *int       `json:"temp_hp,omitempty"`
	Conditions *[]string  `json:"conditions,omitempty"`
	Alignment  *Alignment `json:"alignment,omitempty"`
}

func (p Patch) Empty() bool {
	return p.CurrentHP == nil && p.TempHP == nil && p.Conditions == nil && p.Alignment == nil
}

// State is the combat-visible portion of one encounter: the roster in turn
// order plus the turn cursor. Credentials and claims live in the lobby, so a
// State can be handed to the wire layer as-is.
type State struct {
	Round     int
	TurnIndex int
	Creatures []Combatant
}

// Actor is the capability a command runs under. A DM actor may touch every
// creature; a player actor only the ids in Creatures.
type Actor struct {
	DM        bool
	Creatures map[string]bool
}

func (a Actor) mayPatch(creatureID string) bool {
	return a.DM || a.Creatures[creatureID]
}

type CommandType string

const (
	CmdReplaceRoster CommandType = "ReplaceRoster"
	CmdPatchCreature CommandType = "PatchCreature"
	CmdNextTurn      CommandType = "NextTurn"
	CmdPrevTurn      CommandType = "PrevTurn"
)

type Command struct {
	Type       CommandType
	Actor      Actor
	CreatureID string
	Patch      Patch
	Creatures  []Combatant
}

type EventType string

const (
	EvtRosterReplaced  EventType = "RosterReplaced"
	EvtCreatureUpdated EventType = "CreatureUpdated"
	EvtTurnChanged     EventType = "TurnChanged"
)

type Event struct {
	Type       EventType
	CreatureID string
	Patch      Patch
	Round      int
	TurnIndex  int
}

// Apply runs one command against a state and returns the resulting events and
// the new state. The input state is never mutated; on error it is returned
// unchanged. Role and ownership checks happen here so every surface (HTTP or
// socket) enforces the same rules.
func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdReplaceRoster:
		if !cmd.Actor.DM {
			return nil, s, ErrDMOnly
		}

		roster := make([]Combatant, len(cmd.Creatures))
		for i, c := range cmd.Creatures {
			roster[i] = Normalize(c)
		}
		SortByInitiative(roster)

		newState.Creatures = roster
		// A shrink can leave the cursor past the end; pull it back in range.
		if limit := max(1, len(roster)); newState.TurnIndex >= limit {
			newState.TurnIndex = limit - 1
		}
		return []Event{{Type: EvtRosterReplaced}}, newState, nil

	case CmdPatchCreature:
		if !cmd.Actor.mayPatch(cmd.CreatureID) {
			return nil, s, ErrNotOwner
		}
		idx := slices.IndexFunc(s.Creatures, func(c Combatant) bool { return c.ID == cmd.CreatureID })
		if idx < 0 {
			return nil, s, ErrCreatureNotFound
		}

		creatures := slices.Clone(s.Creatures)
		c := creatures[idx]

		// The accepted subset, post-clamping; this is what gets echoed to
		// every client, including the sender.
		var applied Patch
		if cmd.Patch.CurrentHP != nil {
			c.CurrentHP = clamp(*cmd.Patch.CurrentHP, 0, c.TotalHP)
			v := c.CurrentHP
			applied.CurrentHP = &v
		}
		if cmd.Patch.TempHP != nil {
			c.TempHP = max(0, *cmd.Patch.TempHP)
			v := c.TempHP
			applied.TempHP = &v
		}
		if cmd.Patch.Conditions != nil {
			c.Conditions = dedupe(*cmd.Patch.Conditions)
			v := c.Conditions
			applied.Conditions = &v
		}
		if cmd.Patch.Alignment != nil {
			c.Alignment = *cmd.Patch.Alignment
			v := c.Alignment
			applied.Alignment = &v
		}

		creatures[idx] = c
		newState.Creatures = creatures

		return []Event{{Type: EvtCreatureUpdated, CreatureID: cmd.CreatureID, Patch: applied}}, newState, nil

	case CmdNextTurn:
		if !cmd.Actor.DM {
			return nil, s, ErrDMOnly
		}
		length := max(1, len(s.Creatures))
		newState.TurnIndex = (s.TurnIndex + 1) % length
		if newState.TurnIndex == 0 {
			newState.Round = s.Round + 1
		}
		return []Event{{Type: EvtTurnChanged, Round: newState.Round, TurnIndex: newState.TurnIndex}}, newState, nil

	case CmdPrevTurn:
		if !cmd.Actor.DM {
			return nil, s, ErrDMOnly
		}
		length := max(1, len(s.Creatures))
		newState.TurnIndex = (s.TurnIndex - 1 + length) % length
		if newState.TurnIndex == length-1 {
			newState.Round = max(1, s.Round-1)
		}
		return []Event{{Type: EvtTurnChanged, Round: newState.Round, TurnIndex: newState.TurnIndex}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Normalize fills the defaults a sparse roster entry may omit and forces the
// HP fields into their valid ranges. The id is left as-is: callers mint ids
// for blank entries before Apply.
func Normalize(c Combatant) Combatant {
	if c.Type == "" {
		c.Type = TypePC
	}
	if c.Alignment == "" {
		c.Alignment = AlignGood
	}
	if c.TotalHP < 1 {
		c.TotalHP = max(1, c.CurrentHP)
	}
	c.CurrentHP = clamp(c.CurrentHP, 0, c.TotalHP)
	c.TempHP = max(0, c.TempHP)
	if c.Conditions == nil {
		c.Conditions = []string{}
	} else {
		c.Conditions = dedupe(c.Conditions)
	}
	return c
}

// SortByInitiative orders a roster for turn-taking: initiative descending,
// ties broken by name then id so the order is reproducible.
func SortByInitiative(creatures []Combatant) {
	sort.SliceStable(creatures, func(i, j int) bool {
		a, b := creatures[i], creatures[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dedupe keeps first occurrences, preserving order. Conditions are a set on
// the wire even though JSON carries them as an array.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
