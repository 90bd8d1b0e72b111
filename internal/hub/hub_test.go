package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Elloy123/imbalanceengine/internal/engine"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server, *atomic.Pointer[engine.Orchestrator]) {
	t.Helper()

	var swapped atomic.Pointer[engine.Orchestrator]
	h := NewHub(
		func(o *engine.Orchestrator) { swapped.Store(o) },
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(server.Close)

	return h, server, &swapped
}

func dialSubscriber(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return m
}

func TestHubEngineListOnConnect(t *testing.T) {
	_, server, _ := newTestHub(t)
	conn := dialSubscriber(t, server)

	msg := readJSON(t, conn)
	if msg["type"] != "engine_list" {
		t.Fatalf("first message type = %v, want engine_list", msg["type"])
	}
	engines, ok := msg["engines"].([]any)
	if !ok || len(engines) != len(engine.Catalog()) {
		t.Errorf("engines = %v, want the full catalog", msg["engines"])
	}
}

func TestHubGetEngineList(t *testing.T) {
	_, server, _ := newTestHub(t)
	conn := dialSubscriber(t, server)
	readJSON(t, conn) // greeting

	if err := conn.WriteJSON(map[string]string{"type": "get_engine_list"}); err != nil {
		t.Fatal(err)
	}
	msg := readJSON(t, conn)
	if msg["type"] != "engine_list" {
		t.Errorf("type = %v, want engine_list", msg["type"])
	}
}

func TestHubBroadcast(t *testing.T) {
	h, server, _ := newTestHub(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dialSubscriber(t, server)
		readJSON(t, conns[i]) // greeting
	}

	h.Publish(map[string]any{"type": "trade", "price": 50000.1})

	for i, conn := range conns {
		msg := readJSON(t, conn)
		if msg["type"] != "trade" {
			t.Errorf("subscriber %d: type = %v, want trade", i, msg["type"])
		}
		if msg["price"] != 50000.1 {
			t.Errorf("subscriber %d: price = %v, want 50000.1", i, msg["price"])
		}
	}
}

func TestHubSurvivesDeadSubscriber(t *testing.T) {
	h, server, _ := newTestHub(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dialSubscriber(t, server)
		readJSON(t, conns[i]) // greeting
	}

	// Kill the middle subscriber; the other two must keep receiving.
	conns[1].Close()
	time.Sleep(50 * time.Millisecond)

	h.Publish(map[string]any{"type": "trade", "n": 1.0})
	for _, i := range []int{0, 2} {
		msg := readJSON(t, conns[i])
		if msg["type"] != "trade" {
			t.Errorf("subscriber %d: type = %v, want trade after peer disconnect", i, msg["type"])
		}
	}
}

func TestHubSetEngines(t *testing.T) {
	_, server, swapped := newTestHub(t)

	first := dialSubscriber(t, server)
	readJSON(t, first)
	second := dialSubscriber(t, server)
	readJSON(t, second)

	req := map[string]any{
		"type":    "set_engines",
		"engines": []string{engine.EngineTickVelocity, engine.EngineSideInference},
		"weights": map[string]float64{engine.EngineTickVelocity: 1.0},
	}
	if err := first.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	// Both subscribers hear about the applied configuration.
	for _, conn := range []*websocket.Conn{first, second} {
		msg := readJSON(t, conn)
		if msg["type"] != "engines_updated" {
			t.Fatalf("type = %v, want engines_updated", msg["type"])
		}
		engines, _ := msg["engines"].([]any)
		if len(engines) != 2 || engines[0] != engine.EngineTickVelocity {
			t.Errorf("engines = %v, want echo of requested list", msg["engines"])
		}
		weights, _ := msg["weights"].(map[string]any)
		if weights[engine.EngineTickVelocity] != 1.0 {
			t.Errorf("weights = %v, want echo of requested weights", msg["weights"])
		}
	}

	orch := swapped.Load()
	if orch == nil {
		t.Fatal("no orchestrator was installed")
	}
	active := orch.ActiveEngines()
	if len(active) != 2 || active[0].ID != engine.EngineTickVelocity {
		t.Errorf("installed engines = %v, want [tick_velocity side_inference]", active)
	}
}

func TestHubSetEnginesOmittedWeights(t *testing.T) {
	_, server, _ := newTestHub(t)
	conn := dialSubscriber(t, server)
	readJSON(t, conn)

	req := map[string]any{
		"type":    "set_engines",
		"engines": []string{engine.EngineSpreadWeight},
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	msg := readJSON(t, conn)
	if msg["type"] != "engines_updated" {
		t.Fatalf("type = %v, want engines_updated", msg["type"])
	}
	weights, ok := msg["weights"].(map[string]any)
	if !ok || len(weights) != 0 {
		t.Errorf("weights = %v, want empty object when omitted", msg["weights"])
	}
}

func TestHubSetEnginesUnknownEngine(t *testing.T) {
	h, server, swapped := newTestHub(t)

	requester := dialSubscriber(t, server)
	readJSON(t, requester)
	bystander := dialSubscriber(t, server)
	readJSON(t, bystander)

	req := map[string]any{
		"type":    "set_engines",
		"engines": []string{"quantum_leap"},
	}
	if err := requester.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	msg := readJSON(t, requester)
	if msg["type"] != "error" {
		t.Fatalf("type = %v, want error", msg["type"])
	}
	if errText, _ := msg["message"].(string); !strings.Contains(errText, "quantum_leap") {
		t.Errorf("message = %q, want it to name the unknown engine", errText)
	}
	if swapped.Load() != nil {
		t.Error("rejected configuration must not be installed")
	}

	// The error goes to the requester only: the bystander's next message
	// is a regular trade, not the error.
	h.Publish(map[string]any{"type": "trade"})
	if msg := readJSON(t, bystander); msg["type"] != "trade" {
		t.Errorf("bystander got %v, want trade (error must not broadcast)", msg["type"])
	}
}

func TestHubUnknownControlType(t *testing.T) {
	_, server, _ := newTestHub(t)
	conn := dialSubscriber(t, server)
	readJSON(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "self_destruct"}); err != nil {
		t.Fatal(err)
	}
	msg := readJSON(t, conn)
	if msg["type"] != "error" {
		t.Errorf("type = %v, want error for unknown control type", msg["type"])
	}
}

func TestHubIgnoresMalformedControl(t *testing.T) {
	h, server, _ := newTestHub(t)
	conn := dialSubscriber(t, server)
	readJSON(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}

	// The connection stays up and keeps receiving broadcasts.
	time.Sleep(20 * time.Millisecond)
	h.Publish(map[string]any{"type": "trade"})
	if msg := readJSON(t, conn); msg["type"] != "trade" {
		t.Errorf("type = %v, want trade after malformed control message", msg["type"])
	}
}
