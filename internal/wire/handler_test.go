package wire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/entitytree/internal/access"
	"github.com/matthewbaird/entitytree/internal/logging"
	"github.com/matthewbaird/entitytree/internal/storage"
	"github.com/matthewbaird/entitytree/internal/tree"
)

// reply mirrors ServerMessage with a raw payload for decoding in tests.
type reply struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func dial(t *testing.T, forbid bool, token string) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	store := storage.NewMemoryStore()
	for _, e := range []storage.Entity{
		{ID: 10, EntityType: "node", Bundle: "article", Label: "Ten"},
		{ID: 11, EntityType: "node", Bundle: "article", Label: "Eleven"},
	} {
		_, err := store.Save(ctx, e)
		require.NoError(t, err)
	}
	dir := access.NewDirectory(nil)
	require.NoError(t, dir.Add(&access.Account{AccountName: "editor", Permissions: []string{access.PermissionAccessContent}}, "editor"))

	h := NewHandler(tree.NewRegistry(tree.NewEntityBuilder(store)), logging.NewNop(), forbid)
	srv := httptest.NewServer(access.Middleware(dir)(h))
	t.Cleanup(srv.Close)

	hdr := http.Header{}
	if token != "" {
		hdr.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{HTTPHeader: hdr})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

func roundTrip(t *testing.T, ctx context.Context, conn *websocket.Conn, msg any) reply {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
	var r reply
	require.NoError(t, wsjson.Read(ctx, conn, &r))
	return r
}

func TestHandler_Ping(t *testing.T) {
	conn, ctx := dial(t, false, "")
	r := roundTrip(t, ctx, conn, ClientMessage{Type: "ping", ID: "p1"})
	assert.Equal(t, "pong", r.Type)
	assert.Equal(t, "p1", r.RequestID)
}

func TestHandler_Load(t *testing.T) {
	conn, ctx := dial(t, false, "editor")
	data, err := json.Marshal(LoadData{EntityType: "node", Bundles: "article", Selected: []string{"10"}})
	require.NoError(t, err)

	r := roundTrip(t, ctx, conn, ClientMessage{Type: "load", ID: "l1", Data: data})
	require.Equal(t, "nodes", r.Type)
	assert.Equal(t, "l1", r.RequestID)
	assert.JSONEq(t, `{"entity_type":"node","nodes":[
		{"id":"article","parent":"#","text":"article","state":{"selected":false}},
		{"id":10,"parent":"article","text":"Ten","state":{"selected":true}},
		{"id":11,"parent":"article","text":"Eleven","state":{"selected":false}}
	]}`, string(r.Data))
}

func TestHandler_LoadDenied(t *testing.T) {
	data, err := json.Marshal(LoadData{EntityType: "node", Bundles: "article"})
	require.NoError(t, err)

	conn, ctx := dial(t, false, "")
	r := roundTrip(t, ctx, conn, ClientMessage{Type: "load", ID: "d1", Data: data})
	require.Equal(t, "nodes", r.Type)
	assert.JSONEq(t, `{"entity_type":"node","nodes":[]}`, string(r.Data))

	conn, ctx = dial(t, true, "")
	r = roundTrip(t, ctx, conn, ClientMessage{Type: "load", ID: "d2", Data: data})
	require.Equal(t, "error", r.Type)
	var e ErrorData
	require.NoError(t, json.Unmarshal(r.Data, &e))
	assert.Equal(t, "access_denied", e.Code)
}

func TestHandler_Errors(t *testing.T) {
	conn, ctx := dial(t, false, "editor")

	r := roundTrip(t, ctx, conn, ClientMessage{Type: "explode", ID: "x"})
	require.Equal(t, "error", r.Type)
	var e ErrorData
	require.NoError(t, json.Unmarshal(r.Data, &e))
	assert.Equal(t, "unknown_type", e.Code)

	r = roundTrip(t, ctx, conn, ClientMessage{Type: "load", ID: "y", Data: json.RawMessage(`{"bundles":"article"}`)})
	require.Equal(t, "error", r.Type)
	require.NoError(t, json.Unmarshal(r.Data, &e))
	assert.Equal(t, "invalid_data", e.Code)
}
