// Package wire defines the WebSocket protocol for live tree loading.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/entitytree/internal/tree"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "load", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// LoadData is the payload for "load" messages.
type LoadData struct {
	EntityType string   `json:"entity_type"`
	Bundles    string   `json:"bundles"` // comma-separated, "*" for all
	Selected   []string `json:"selected,omitempty"`
	Parent     string   `json:"parent,omitempty"`
	MaxDepth   int      `json:"max_depth,omitempty"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "nodes", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// NodesData carries the widget nodes for one load.
type NodesData struct {
	EntityType string      `json:"entity_type"`
	Nodes      []tree.Node `json:"nodes"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
