package engine

// NewState is the state of a freshly created encounter: round 1, cursor at
// the top of an empty roster.
func NewState() State {
	return State{
		Round:     1,
		TurnIndex: 0,
		Creatures: []Combatant{},
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// FindCreature returns the combatant with the given id, if present.
func FindCreature(s State, id string) (Combatant, bool) {
	for _, c := range s.Creatures {
		if c.ID == id {
			return c, true
		}
	}
	return Combatant{}, false
}

// IntPtr and StringsPtr are conveniences for building patches.
func IntPtr(v int) *int { return &v }

func StringsPtr(v ...string) *[]string { return &v }
