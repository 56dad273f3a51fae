package types

// Client -> Server (websocket, JSON text frames)
//
// Connect-time credential rides in the query string:
//   GET /ws?role=dm|player&encounter=<id>&token=<bearer>
// A socket that fails validation receives one {"type":"error"} frame and is
// closed with policy-violation; it joins no group.
//
// creature:update:
//   creatureId: string
//   patch:
//     current_hp?: number   // clamped into [0, total_hp]
//     temp_hp?: number      // clamped to >= 0, may exceed total_hp
//     conditions?: string[] // wholesale replace, treated as a set
//     alignment?: "Good" | "Neutral" | "Evil"
//
// turn:next: {}   // dm only
// turn:prev: {}   // dm only

// Server -> Client
//
// encounter:state:   // on join and after every roster replace
//   state: Snapshot
//
// creature:update:   // authoritative echo of the accepted subset
//   update: { creatureId, patch }
//
// turn:state:
//   turn: { round, turnIndex }
//
// creature:claim:
//   claim: { creatureId, playerName }
//
// error:
//   error: string
