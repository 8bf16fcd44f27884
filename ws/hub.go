package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const tickInterval = 10 * time.Second

// Hub tracks connected classifier clients, runs the connect handshake and
// hands authenticated requests to RPCRouter.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	stopped    chan struct{}

	token     string
	RPCRouter func(client *Client, req RPCRequest)
}

func NewHub(token string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		token:      token,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.done)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			nonce := generateNonce()
			client.setChallenge(nonce)
			client.SendJSON(NewEvent(EventChallenge, map[string]string{
				"nonce": nonce,
			}))
			slog.Info("client connected, challenge sent")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
				slog.Info("client unregistered", "clientID", client.ClientID())
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
		close(client.done)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// Broadcast sends event to every authenticated client.
func (h *Hub) Broadcast(event RPCEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.IsAuthenticated() {
			client.SendJSON(event)
		}
	}
}

// ConnectedClients counts authenticated clients.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.IsAuthenticated() {
			n++
		}
	}
	return n
}

func (h *Hub) handleMessage(client *Client, data []byte) {
	var msg RPCMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "err", err)
		return
	}

	switch msg.Type {
	case "req":
		// Handle connect specially (before auth check)
		if msg.Method == MethodConnect {
			h.handleConnect(client, msg)
			return
		}

		if !client.IsAuthenticated() {
			client.SendJSON(NewErrorResponse(msg.ID, CodeAuthRequired, "Not authenticated"))
			return
		}

		var params map[string]json.RawMessage
		if msg.Params != nil {
			json.Unmarshal(msg.Params, &params)
		}
		if params == nil {
			params = make(map[string]json.RawMessage)
		}

		req := RPCRequest{ID: msg.ID, Method: msg.Method, Params: params}
		if h.RPCRouter != nil {
			h.RPCRouter(client, req)
		}

	default:
		slog.Warn("unknown message type", "type", msg.Type)
	}
}

func (h *Hub) handleConnect(client *Client, msg RPCMessage) {
	if client.IsAuthenticated() {
		client.SendJSON(NewErrorResponse(msg.ID, CodeAuthFailed, "already authenticated"))
		return
	}

	clientID, displayName, err := VerifyConnect(msg.Params, client.challenge(), h.token)
	if err != nil {
		slog.Warn("auth failed", "err", err)
		client.SendJSON(NewErrorResponse(msg.ID, CodeAuthFailed, err.Error()))
		return
	}

	client.SetAuth(clientID, displayName)
	client.SendJSON(NewResponse(msg.ID, map[string]interface{}{
		"protocol": ProtocolVersion,
		"policy": map[string]interface{}{
			"tickIntervalMs": tickInterval.Milliseconds(),
		},
	}))

	slog.Info("client authenticated", "clientID", clientID, "displayName", displayName)

	go h.tickLoop(client)
}

func (h *Hub) tickLoop(client *Client) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-ticker.C:
			client.SendJSON(NewEvent(EventTick, nil))
		}
	}
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
