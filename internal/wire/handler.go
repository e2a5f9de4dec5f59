package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/entitytree/internal/tree"
)

// Handler manages WebSocket connections that load trees on demand.
type Handler struct {
	registry       *tree.Registry
	logger         *slog.Logger
	forbidOnDenied bool
}

// NewHandler creates a WebSocket handler. With forbidOnDenied set, a load
// the caller may not read answers with an "access_denied" error instead of
// an empty node list.
func NewHandler(registry *tree.Registry, logger *slog.Logger, forbidOnDenied bool) *Handler {
	return &Handler{
		registry:       registry,
		logger:         logger,
		forbidOnDenied: forbidOnDenied,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. The user
// attached to the upgrade request applies to every load on the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("wire: websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.logger.Debug("wire: connection closed", "status", status)
			}
			return
		}

		switch msg.Type {
		case "load":
			h.handleLoad(ctx, conn, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleLoad(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data LoadData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid load data")
		return
	}
	if data.EntityType == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "entity_type is required")
		return
	}

	req := tree.Request{
		EntityType: data.EntityType,
		Bundles:    tree.SplitBundles(data.Bundles),
		Options:    tree.LoadOptions{MaxDepth: data.MaxDepth},
	}
	if data.Parent != "" {
		req.Options.Parent = tree.ParseID(data.Parent)
	}
	for _, s := range data.Selected {
		req.Selected = append(req.Selected, tree.ParseID(s))
	}

	res, err := tree.Collect(ctx, h.registry.Resolve(data.EntityType), req)
	if err != nil {
		h.logger.Error("wire: load failed", "err", err, "entity_type", data.EntityType)
		h.sendError(ctx, conn, msg.ID, "load_failed", "could not load tree")
		return
	}
	if res.Denied > 0 && h.forbidOnDenied {
		h.sendError(ctx, conn, msg.ID, "access_denied", "not allowed to view "+data.EntityType+" trees")
		return
	}

	h.send(ctx, conn, ServerMessage{
		Type:      "nodes",
		RequestID: msg.ID,
		Data: NodesData{
			EntityType: data.EntityType,
			Nodes:      res.Nodes,
		},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Warn("wire: write failed", "err", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      ErrorData{Code: code, Message: message},
	})
}
