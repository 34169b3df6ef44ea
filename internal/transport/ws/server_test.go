package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gridmind.ai/internal/sim/creature"
	"gridmind.ai/internal/sim/world"
)

type fakeSource struct{}

func (fakeSource) Metrics() world.Metrics { return world.Metrics{Frame: 42, Agents: 2} }

func (fakeSource) Diagnostics() []creature.Diagnostics {
	return []creature.Diagnostics{
		{Creature: "a", Task: "idle"},
		{Creature: "b", Task: "sleep"},
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readDiag(t *testing.T, conn *websocket.Conn) DiagMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg DiagMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return msg
}

func TestStreamAndResubscribe(t *testing.T) {
	s := NewServer(fakeSource{}, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(SubscribeMsg{Type: TypeSubscribe, ProtocolVersion: Version, IntervalMS: 50}); err != nil {
		t.Fatal(err)
	}
	msg := readDiag(t, conn)
	if msg.Type != TypeDiag || msg.Metrics.Frame != 42 || len(msg.Minds) != 2 {
		t.Fatalf("msg=%+v", msg)
	}

	if err := conn.WriteJSON(SubscribeMsg{Type: TypeSubscribe, ProtocolVersion: Version, IntervalMS: 50, Creatures: []string{"b"}}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msg = readDiag(t, conn)
		if len(msg.Minds) == 1 {
			break
		}
	}
	if len(msg.Minds) != 1 || msg.Minds[0].Creature != "b" {
		t.Fatalf("filtered minds=%+v", msg.Minds)
	}
	if s.Clients() != 1 {
		t.Fatalf("clients=%d want 1", s.Clients())
	}
}

func TestRejectsBadHandshake(t *testing.T) {
	srv := httptest.NewServer(NewServer(fakeSource{}, nil).Handler())
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(SubscribeMsg{Type: "HELLO", ProtocolVersion: Version}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("err=%v want policy violation close", err)
	}
}

func TestRejectsRemoteClients(t *testing.T) {
	s := NewServer(fakeSource{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/diag", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	s.Handler()(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code=%d want 403", rec.Code)
	}
}

func TestDecodeSubscribeClampsInterval(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, defaultIntervalMS},
		{1, minIntervalMS},
		{250, 250},
		{99999, maxIntervalMS},
	}
	for _, tc := range cases {
		b, _ := json.Marshal(SubscribeMsg{Type: TypeSubscribe, ProtocolVersion: Version, IntervalMS: tc.in})
		sub, ok := decodeSubscribe(b)
		if !ok || sub.IntervalMS != tc.want {
			t.Fatalf("interval %d -> %d ok=%v want %d", tc.in, sub.IntervalMS, ok, tc.want)
		}
	}
	if _, ok := decodeSubscribe([]byte(`{"type":"SUBSCRIBE","protocol_version":"0"}`)); ok {
		t.Fatalf("wrong version accepted")
	}
}

func TestSendLatestKeepsNewest(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("old"))
	sendLatest(ch, []byte("new"))
	if got := string(<-ch); got != "new" {
		t.Fatalf("got %q want new", got)
	}
}
