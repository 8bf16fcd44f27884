package rpc

import (
	"encoding/json"
	"log/slog"

	"github.com/nicebartender/bci-bridge/bridge"
	"github.com/nicebartender/bci-bridge/db"
	"github.com/nicebartender/bci-bridge/ws"
)

type Router struct {
	Hub    *ws.Hub
	Bridge *bridge.Bridge
	DB     *db.DB // nil when the dispatch log is disabled
}

func NewRouter(hub *ws.Hub, b *bridge.Bridge, database *db.DB) *Router {
	r := &Router{Hub: hub, Bridge: b, DB: database}
	hub.RPCRouter = r.Handle
	return r
}

func (r *Router) Handle(client *ws.Client, req ws.RPCRequest) {
	slog.Debug("RPC", "method", req.Method, "clientID", client.ClientID())

	switch req.Method {
	case ws.MethodClassify:
		r.handleClassify(client, req)
	case ws.MethodStatus:
		r.handleStatus(client, req)
	case ws.MethodDispatchHistory:
		r.handleHistory(client, req)
	default:
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeUnknownMethod, "Unknown method: "+req.Method))
	}
}

func jsonString(raw json.RawMessage) string {
	var s string
	if raw != nil {
		json.Unmarshal(raw, &s)
	}
	return s
}

func jsonInt(raw json.RawMessage) int {
	var i int
	if raw != nil {
		json.Unmarshal(raw, &i)
	}
	return i
}
