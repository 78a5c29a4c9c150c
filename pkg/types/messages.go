package types

// Client -> Server (every message is {"type": ..., "data": {...}})
// authenticate:
//   userId: string
//   username: string
//   matchId?: string (rejoin a running match)
//
// moba_queue_join:
//   matchType: "RANKED" | "NORMAL"
//   deckSlot: number
//
// moba_queue_leave: {}
//
// moba_submit_actions:
//   matchId: string
//   actions: [{ oderId, action, targetItemId?, sellItemId?, useItemTarget? }]
//
// moba_surrender:
//   matchId: string
//
// moba_spectate:
//   matchId: string
//
// moba_spectate_leave:
//   matchId: string
//
// moba_get_items:
//   position: "TOP" | "JUNGLE" | "MID" | "ADC" | "SUPPORT"

// Server -> Client ({"type": ..., "matchId"?: ..., "data": {...}})
// moba_queue_joined:      position (only while waiting)
// moba_queue_left:        {}
// moba_match_found:       state, teamNumber, opponent { userId, username }
// moba_turn_start:        turn, timeLimit
// moba_teamfight_alert:   event, eventName, message
// moba_actions_submitted: turn, accepted, rejected[]
// moba_turn_result:       turn, events[], team1State, team2State, combatResults[], objectiveResult?, gameEnd?
// moba_game_end:          winner, winnerId, reason, finalState
// moba_spectate_joined:   state, spectatorCount, usernames { team1, team2 }
// moba_spectator_count:   count
// moba_items_list:        position, items[]
// moba_error:             code, message
