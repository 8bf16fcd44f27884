package consumer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Mock is an in-process stand-in for the consumer. It serves the same two
// endpoints and remembers every command it accepted.
type Mock struct {
	mu          sync.Mutex
	down        bool
	commandCode int
	received    []CommandPayload
	statusHits  int
	commandHits int
	logCommands bool
}

func NewMock() *Mock {
	return &Mock{commandCode: http.StatusOK}
}

// SetDown makes both endpoints answer 503.
func (m *Mock) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

// SetCommandStatus overrides the status code returned by POST /command.
func (m *Mock) SetCommandStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCode = code
}

// LogCommands enables an Info log line per accepted command.
func (m *Mock) LogCommands(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logCommands = on
}

func (m *Mock) Received() []CommandPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CommandPayload, len(m.received))
	copy(out, m.received)
	return out
}

func (m *Mock) StatusHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusHits
}

func (m *Mock) CommandHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandHits
}

func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == StatusPath && r.Method == http.MethodGet:
		m.serveStatus(w)
	case r.URL.Path == CommandPath && r.Method == http.MethodPost:
		m.serveCommand(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *Mock) serveStatus(w http.ResponseWriter) {
	m.mu.Lock()
	m.statusHits++
	down := m.down
	m.mu.Unlock()

	if down {
		http.Error(w, `{"status":"down"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (m *Mock) serveCommand(w http.ResponseWriter, r *http.Request) {
	var payload CommandPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.commandHits++
	code := m.commandCode
	if m.down {
		code = http.StatusServiceUnavailable
	}
	if code >= 200 && code <= 299 {
		m.received = append(m.received, payload)
	}
	logCommands := m.logCommands
	m.mu.Unlock()

	if logCommands {
		slog.Info("command received", "command", strings.ToUpper(payload.Command), "strength", payload.Strength, "timestamp", payload.Timestamp, "status", code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": code >= 200 && code <= 299})
}
