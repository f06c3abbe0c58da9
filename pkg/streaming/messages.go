package streaming

import (
	"encoding/json"

	"github.com/armorclash/engine/pkg/record"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession   = "start_session"
	TypeEndSession     = "end_session"
	TypeAddTank        = "add_tank"
	TypeAddInfantry    = "add_infantry"
	TypeAddMine        = "add_mine"
	TypeAddCrate       = "add_crate"
	TypeTankState      = "tank_state"
	TypeInfantryState  = "infantry_state"
	TypeFireEvent      = "fire_event"
	TypeProjectilePath = "projectile_path"
	TypeHitEvent       = "hit_event"
	TypeKillEvent      = "kill_event"
	TypeMineEvent      = "mine_event"
	TypePickupEvent    = "pickup_event"
	TypeProgressEvent  = "progress_event"
	TypeTickStats      = "tick_stats"
	TypeGeneralEvent   = "general_event"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload carries session and arena data.
type StartSessionPayload struct {
	Session *record.Session `json:"session"`
	Arena   *record.Arena   `json:"arena"`
}
