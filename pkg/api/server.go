//nolint:revive // api is a standard package name for API servers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/octoco-ltd/scalelink/pkg/peripheral"
	"github.com/octoco-ltd/scalelink/pkg/sensor"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server provides a WebSocket API for monitoring the peripheral and driving
// the simulated scale.
type Server struct {
	http.Handler

	addr       string
	peripheral *peripheral.Peripheral
	scale      *sensor.Simulated

	conn *websocket.Conn
	mtx  sync.Mutex
}

// Status is the JSON snapshot served on /status and on the "status" command.
type Status struct {
	Connected  bool    `json:"connected"`
	Subscribed bool    `json:"subscribed"`
	Target     float64 `json:"target_grams"`
}

// Event is a peripheral event sent to websocket clients.
type Event struct {
	Type    string  `json:"type"`
	Central string  `json:"central,omitempty"`
	Grams   float64 `json:"grams,omitempty"`
	Message string  `json:"message,omitempty"`
}

// New creates a new API server. scale may be nil when the firmware runs
// against real hardware; the weight commands are then rejected.
func New(addr string, p *peripheral.Peripheral, scale *sensor.Simulated) *Server {
	return &Server{
		addr:       addr,
		peripheral: p,
		scale:      scale,
	}
}

// Start starts the HTTP/WebSocket server. Blocks.
func (s *Server) Start() error {
	log.Infof("control API listening on %s", s.addr)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ScaleLink control API - connect via WebSocket at /ws\n\nHTTP API:\n  GET /status\n")
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/ws", s)

	return http.ListenAndServe(s.addr, mux)
}

// Observe is the peripheral observer hook: it forwards state changes and
// streamed samples to the websocket client. It is called with the peripheral
// lock held and therefore never calls back into the peripheral.
func (s *Server) Observe(n peripheral.Notice) {
	ev := Event{Type: string(n.Kind), Central: n.CentralID}
	switch n.Kind {
	case peripheral.NoticeSample, peripheral.NoticeRead:
		ev.Grams = n.Grams
	case peripheral.NoticeFault:
		ev.Message = n.Err.Error()
	}
	s.sendEvent(ev)
}

func (s *Server) sendEvent(event Event) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.conn == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Failed to marshal event: %v", err)
		return
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Errorf("Failed to send websocket message: %v", err)
	}
}

func (s *Server) snapshot() Status {
	st := Status{
		Connected:  s.peripheral.IsConnected(),
		Subscribed: s.peripheral.IsSubscribed(),
	}
	if s.scale != nil {
		st.Target = s.scale.Target()
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		log.Warnf("Failed to write status: %v", err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Infof("WebSocket connection from: %s", r.RemoteAddr)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	s.mtx.Lock()
	s.conn = ws
	s.mtx.Unlock()

	s.sendState()
	s.reader(ws)
}

func (s *Server) sendState() {
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		log.Errorf("Failed to marshal state: %v", err)
		return
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.conn != nil {
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Errorf("Failed to send state: %v", err)
		}
	}
}

func (s *Server) reader(conn *websocket.Conn) {
	defer func() {
		s.mtx.Lock()
		s.conn = nil
		s.mtx.Unlock()
		if err := conn.Close(); err != nil {
			log.Debugf("Error closing websocket: %v", err)
		}
	}()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Infof("WebSocket read error: %v", err)
			return
		}
		log.Debugf("Received WebSocket message: %s", string(p))
		s.handleCommand(p)
	}
}

func (s *Server) handleCommand(data []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Errorf("Failed to parse command: %v", err)
		return
	}

	command, ok := msg["command"].(string)
	if !ok {
		log.Error("Command field missing or not a string")
		return
	}

	switch command {
	case "status":
		s.sendState()
	case "set_weight":
		grams, ok := msg["grams"].(float64)
		if !ok {
			log.Error("set_weight requires a numeric grams field")
			return
		}
		if s.scale == nil {
			log.Error("set_weight unavailable: not running the simulated scale")
			return
		}
		log.Infof("setting simulated weight to %.1fg", grams)
		s.scale.SetWeight(grams)
	case "tare":
		if s.scale == nil {
			log.Error("tare unavailable: not running the simulated scale")
			return
		}
		log.Info("taring simulated scale")
		s.scale.Tare()
	default:
		log.Errorf("Unknown command: %s", command)
	}
}
