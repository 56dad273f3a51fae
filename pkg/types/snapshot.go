package types

// Snapshot:
//   id: string          // encounter id, also the fan-out group name
//   code: string        // 4-char join code
//   round: number       // 1-based
//   turnIndex: number   // 0-based index into the initiative-sorted roster
//   creatures: Combatant[]
//   claims: { [creatureId]: { playerName } }  // tokens never serialized
//
// Combatant:
//   id: string
//   name: string
//   type: "PC" | "NPC" | "Monster"
//   alignment: "Good" | "Neutral" | "Evil"
//   initiative: number  // sort key only, ties broken by name then id
//   total_hp: number    // >= 1
//   current_hp: number  // in [0, total_hp]
//   temp_hp: number     // >= 0, not capped by total_hp
//   conditions: string[]
