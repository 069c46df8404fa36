package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"crawlnet/packet"
)

func TestAdminConfigGetAndPatch(t *testing.T) {
	h := newHarness(t, nil)
	ts := httptest.NewServer(h.s.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/admin/config")
	if err != nil {
		t.Fatal(err)
	}
	var cur TuningValues
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if cur.PlayerSpeed != h.s.cfg.Server.PlayerSpeed || cur.EnemySpeedScale != 1 {
		t.Fatalf("unexpected initial tuning %+v", cur)
	}

	resp, err = http.Post(ts.URL+"/admin/config", "application/json", strings.NewReader(`{"simulateDropProb": 3}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d", resp.StatusCode)
	}
	if got := h.s.Tuning().Snapshot(); got.SimulateDropProb != 1 || got.PlayerSpeed != cur.PlayerSpeed {
		t.Fatalf("patch should clamp drop and keep other fields, got %+v", got)
	}

	// 丢包概率为 1 时连身份请求都收不到
	c := h.peer(t, "127.0.0.1:5001")
	send(t, c, &packet.IDPacket{})
	h.tick(time.Millisecond)
	if h.s.Peers().Len() != 0 {
		t.Fatal("dropped datagram registered a peer")
	}
	if h.s.Metrics().Snapshot()["drops_simulated"].(int64) != 1 {
		t.Fatal("simulated drop not counted")
	}
}

func TestAdminConfigRejectsBadRequests(t *testing.T) {
	h := newHarness(t, nil)
	ts := httptest.NewServer(h.s.Mux())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/admin/config", "application/json", strings.NewReader(`{`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/admin/config", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	h := newHarness(t, nil)
	join(t, h, h.peer(t, "127.0.0.1:5001"))
	ts := httptest.NewServer(h.s.Mux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Session string         `json:"session"`
		Tick    uint64         `json:"tick"`
		Players int64          `json:"players"`
		Metrics map[string]any `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if body.Session != h.s.Session || body.Tick != 1 || body.Players != 1 {
		t.Fatalf("unexpected metrics payload %+v", body)
	}
	if body.Metrics["peers_joined"].(float64) != 1 {
		t.Fatalf("expected one join, got %v", body.Metrics["peers_joined"])
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
}

func TestSpectatorReceivesMapThenState(t *testing.T) {
	h := newHarness(t, nil)
	ts := httptest.NewServer(h.s.Mux())
	defer ts.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var m mapMessage
	if err := ws.ReadJSON(&m); err != nil {
		t.Fatalf("read map: %v", err)
	}
	r := h.s.Rooms().Current()
	if m.Type != "map" || m.Room != r.Z || len(m.Rows) != r.Height || len(m.Rows[0]) != r.Width {
		t.Fatalf("unexpected map frame %+v", m)
	}

	join(t, h, h.peer(t, "127.0.0.1:5001"))
	var st stateView
	if err := ws.ReadJSON(&st); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if st.Type != "state" || len(st.Players) != 1 || st.Players[0].ID != 1 {
		t.Fatalf("unexpected state frame %+v", st)
	}
}
