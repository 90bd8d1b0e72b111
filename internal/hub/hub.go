// Package hub fans enriched ticks out to WebSocket subscribers and
// handles the subscriber control protocol (engine listing and live
// pipeline reconfiguration).
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Elloy123/imbalanceengine/internal/engine"
	"github.com/Elloy123/imbalanceengine/internal/observability"
)

const (
	// sendBuffer is the per-subscriber outbound queue. A subscriber that
	// falls this far behind is dropped rather than back-pressuring the
	// fan-out loop.
	sendBuffer = 256

	// ticksBuffer absorbs ingest bursts between fan-out rounds.
	ticksBuffer = 1024

	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different port than the stream.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Swapper installs a freshly built pipeline as the active one.
type Swapper func(*engine.Orchestrator)

// controlMsg is the envelope of every inbound subscriber message.
type controlMsg struct {
	Type    string             `json:"type"`
	Engines []string           `json:"engines"`
	Weights map[string]float64 `json:"weights"`
}

type engineListMsg struct {
	Type    string        `json:"type"`
	Engines []engine.Info `json:"engines"`
}

type enginesUpdatedMsg struct {
	Type    string             `json:"type"`
	Engines []string           `json:"engines"`
	Weights map[string]float64 `json:"weights"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type controlRequest struct {
	msg  controlMsg
	from *subscriber
}

// subscriber is one connected WebSocket client. The hub goroutine owns
// membership; the subscriber's own pumps own the connection.
type subscriber struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// trySend queues msg without blocking. False means the subscriber is
// gone or too slow and should be removed.
func (s *subscriber) trySend(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

func (s *subscriber) writePump() {
	defer s.conn.Close()
	for {
		select {
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.close()
				return
			}
		}
	}
}

// Hub owns the subscriber set. All membership changes and fan-outs run
// on the single Run goroutine; handlers talk to it through channels.
type Hub struct {
	log  *slog.Logger
	swap Swapper

	subs       map[*subscriber]struct{}
	register   chan *subscriber
	unregister chan *subscriber
	ticks      chan []byte
	control    chan controlRequest
	done       chan struct{}

	nextID atomic.Uint64
}

// NewHub creates a hub that installs reconfigured pipelines via swap.
func NewHub(swap Swapper, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:        log,
		swap:       swap,
		subs:       make(map[*subscriber]struct{}),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		ticks:      make(chan []byte, ticksBuffer),
		control:    make(chan controlRequest),
		done:       make(chan struct{}),
	}
}

// Run processes registrations, fan-outs, and control requests until ctx
// is cancelled. It must be started before the first ServeWS call.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for s := range h.subs {
			delete(h.subs, s)
			s.close()
		}
		observability.SetSubscribers(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.subs[s] = struct{}{}
			observability.SetSubscribers(len(h.subs))
			h.log.Info("subscriber connected", "id", s.id, "total", len(h.subs))
		case s := <-h.unregister:
			if _, ok := h.subs[s]; ok {
				delete(h.subs, s)
				s.close()
				observability.SetSubscribers(len(h.subs))
				h.log.Info("subscriber disconnected", "id", s.id, "total", len(h.subs))
			}
		case msg := <-h.ticks:
			h.broadcast(msg)
		case req := <-h.control:
			h.handleSetEngines(req)
		}
	}
}

// Publish queues one payload for fan-out. It never blocks the caller:
// when the inbox is full the tick is dropped and counted.
func (h *Hub) Publish(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal broadcast payload", "err", err)
		return
	}
	select {
	case h.ticks <- msg:
	default:
		observability.RecordDroppedTick()
	}
}

// broadcast sends msg to every subscriber, dropping the ones whose
// queue is full or whose connection is gone. Hub goroutine only.
func (h *Hub) broadcast(msg []byte) {
	for s := range h.subs {
		if !s.trySend(msg) {
			delete(h.subs, s)
			s.close()
			observability.RecordDroppedSend()
			observability.SetSubscribers(len(h.subs))
			h.log.Warn("dropping slow subscriber", "id", s.id, "total", len(h.subs))
		}
	}
	observability.RecordBroadcast()
}

// handleSetEngines builds a fresh pipeline from the request. On success
// the new pipeline is installed and every subscriber is told; on failure
// only the requester hears about it and the active pipeline is untouched.
func (h *Hub) handleSetEngines(req controlRequest) {
	orch, err := engine.NewOrchestrator(engine.Config{
		Engines: req.msg.Engines,
		Weights: req.msg.Weights,
	})
	if err != nil {
		observability.RecordReconfigure(false)
		h.log.Warn("rejected engine reconfiguration", "err", err)
		h.sendError(req.from, err.Error())
		return
	}

	h.swap(orch)
	observability.RecordReconfigure(true)
	h.log.Info("engine pipeline reconfigured", "engines", req.msg.Engines)

	engines := req.msg.Engines
	if engines == nil {
		engines = []string{}
	}
	weights := req.msg.Weights
	if weights == nil {
		weights = map[string]float64{}
	}
	out, err := json.Marshal(enginesUpdatedMsg{Type: "engines_updated", Engines: engines, Weights: weights})
	if err != nil {
		h.log.Error("marshal engines_updated", "err", err)
		return
	}
	h.broadcast(out)
}

func (h *Hub) sendError(s *subscriber, msg string) {
	out, err := json.Marshal(errorMsg{Type: "error", Message: msg})
	if err != nil {
		return
	}
	s.trySend(out)
}

func (h *Hub) sendEngineList(s *subscriber) {
	out, err := json.Marshal(engineListMsg{Type: "engine_list", Engines: engine.Catalog()})
	if err != nil {
		return
	}
	s.trySend(out)
}

// ServeWS upgrades the request, greets the client with the engine
// catalog, and blocks reading control messages until the connection
// drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s := &subscriber{
		id:   h.nextID.Add(1),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	// Queue the greeting before registration so it precedes any tick.
	h.sendEngineList(s)

	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.writePump()
	h.readPump(s)
}

// readPump handles inbound control messages for one subscriber. It runs
// on the HTTP handler goroutine and exits when the connection drops.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		s.close()
		select {
		case h.unregister <- s:
		case <-h.done:
		}
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg controlMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Warn("ignoring malformed control message", "id", s.id, "err", err)
			continue
		}

		switch msg.Type {
		case "get_engine_list":
			h.sendEngineList(s)
		case "set_engines":
			select {
			case h.control <- controlRequest{msg: msg, from: s}:
			case <-h.done:
				return
			}
		default:
			h.sendError(s, "unknown control type: "+msg.Type)
		}
	}
}
