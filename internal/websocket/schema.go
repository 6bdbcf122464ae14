package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventActivity Event = "activity"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotFrame is the first frame sent to a freshly attached monitor: the
// exam header plus the current attempt roster.
type SnapshotFrame struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

// ActivityFrame forwards one attempt activity event to the monitor. Data is
// the raw JSON published by the attempt engine, passed through untouched.
type ActivityFrame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
