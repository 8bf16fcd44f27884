package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nicebartender/bci-bridge/bridge"
	"github.com/nicebartender/bci-bridge/ws"
)

// ClassifyRequest is the wire form of one classified command.
type ClassifyRequest struct {
	Command   string   `json:"command"`
	Strength  *float64 `json:"strength"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// paramError carries the RPC error code for a malformed request.
type paramError struct {
	code string
	err  error
}

func (e *paramError) Error() string { return e.err.Error() }

func (c ClassifyRequest) toCommand() (bridge.Command, error) {
	if c.Command == "" || c.Strength == nil {
		return bridge.Command{}, &paramError{ws.CodeInvalidParams, errors.New("command and strength are required")}
	}
	cmd, err := bridge.ParseCommand(c.Command, *c.Strength, c.Timestamp)
	switch {
	case errors.Is(err, bridge.ErrUnknownCommand):
		return bridge.Command{}, &paramError{ws.CodeUnknownCommand, err}
	case err != nil:
		return bridge.Command{}, &paramError{ws.CodeInvalidParams, err}
	}
	return cmd, nil
}

// ResultPayload is the JSON view of a bridge.Result, shared by RPC responses,
// the HTTP endpoint and bridge.dispatch events.
func ResultPayload(res bridge.Result) map[string]interface{} {
	p := map[string]interface{}{
		"status":   string(res.Outcome),
		"command":  string(res.Command.Kind),
		"strength": res.Command.Strength,
		"at":       res.At.UnixMilli(),
	}
	if res.Attempted() {
		p["sentStrength"] = res.SentStrength
	}
	if res.Reason != nil {
		p["reason"] = res.ReasonText()
	}
	return p
}

// Broadcaster returns a bridge observer that publishes results as
// bridge.dispatch events.
func Broadcaster(hub *ws.Hub) bridge.Observer {
	return func(res bridge.Result) {
		hub.Broadcast(ws.NewEvent(ws.EventDispatch, ResultPayload(res)))
	}
}

func (r *Router) handleClassify(client *ws.Client, req ws.RPCRequest) {
	var creq ClassifyRequest
	creq.Command = jsonString(req.Params["command"])
	if raw, ok := req.Params["strength"]; ok {
		var s float64
		if err := json.Unmarshal(raw, &s); err == nil {
			creq.Strength = &s
		}
	}
	if raw, ok := req.Params["timestamp"]; ok {
		json.Unmarshal(raw, &creq.Timestamp)
	}

	cmd, err := creq.toCommand()
	if err != nil {
		var perr *paramError
		errors.As(err, &perr)
		client.SendJSON(ws.NewErrorResponse(req.ID, perr.code, perr.Error()))
		return
	}

	res := r.Bridge.Submit(context.Background(), cmd)
	client.SendJSON(ws.NewResponse(req.ID, ResultPayload(res)))
}

func (r *Router) handleStatus(client *ws.Client, req ws.RPCRequest) {
	client.SendJSON(ws.NewResponse(req.ID, r.statusPayload()))
}

func (r *Router) statusPayload() map[string]interface{} {
	st := r.Bridge.Status()
	p := map[string]interface{}{
		"consumerAlive": st.ConsumerAlive,
		"probes":        st.Probes,
		"clients":       r.Hub.ConnectedClients(),
	}
	if !st.LastCheckedAt.IsZero() {
		p["lastCheckedAt"] = st.LastCheckedAt.UnixMilli()
	}
	if st.LastCommand != "" {
		p["lastCommand"] = string(st.LastCommand)
		p["lastCommandAt"] = st.LastCommandAt.UnixMilli()
	}
	return p
}

// ClassifyHTTP serves POST /classify for callers that do not hold a
// WebSocket open.
func (r *Router) ClassifyHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	var creq ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 4096)).Decode(&creq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid json: %v", err)})
		return
	}
	cmd, err := creq.toCommand()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := r.Bridge.Submit(req.Context(), cmd)
	writeJSON(w, http.StatusOK, ResultPayload(res))
}

// StatusHTTP serves GET /status.
func (r *Router) StatusHTTP(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.statusPayload())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
