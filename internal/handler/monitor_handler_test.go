package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/cbtarena/cbtarena-backend/internal/websocket"
)

// startMonitorSession runs runSession behind a test server fed by the given
// events channel and returns a dialed client plus a channel closed when the
// session loop returns.
func startMonitorSession(t *testing.T, events <-chan *redis.Message) (*websocket.Conn, <-chan struct{}) {
	t.Helper()

	h := &MonitorHandler{log: zerolog.Nop(), upgrader: buildUpgrader(nil)}
	sessionDone := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		h.runSession(r.Context(), conn, events, zerolog.Nop())
		close(sessionDone)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client, sessionDone
}

// Pings racing activity events must not corrupt the stream: every frame the
// session writes goes out from one goroutine, so interleaving them is safe.
func TestMonitorSessionInterleavesPingsAndActivity(t *testing.T) {
	const activityCount = 50

	events := make(chan *redis.Message)
	client, _ := startMonitorSession(t, events)

	go func() {
		for i := 0; i < activityCount; i++ {
			events <- &redis.Message{Payload: `{"activity_type":"ATTEMPT_STARTED"}`}
		}
	}()
	go func() {
		for i := 0; i < activityCount; i++ {
			if err := client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
				return
			}
		}
	}()

	client.SetReadDeadline(time.Now().Add(5 * time.Second))

	activities, pongs := 0, 0
	for activities < activityCount {
		var frame struct {
			Event ws.Event        `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := client.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame after %d activities, %d pongs: %v", activities, pongs, err)
		}
		switch frame.Event {
		case ws.EventActivity:
			activities++
		case ws.EventPong:
			pongs++
		default:
			t.Fatalf("unexpected event %q", frame.Event)
		}
	}

	// With the activity stream drained, a ping must still get its pong.
	if err := client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	for {
		var frame struct {
			Event ws.Event `json:"event"`
		}
		if err := client.ReadJSON(&frame); err != nil {
			t.Fatalf("read pong: %v", err)
		}
		if frame.Event == ws.EventPong {
			break
		}
	}
}

func TestMonitorSessionEndsWhenClientLeaves(t *testing.T) {
	events := make(chan *redis.Message)
	client, sessionDone := startMonitorSession(t, events)

	client.Close()

	select {
	case <-sessionDone:
	case <-time.After(3 * time.Second):
		t.Fatal("session loop did not stop after client close")
	}
}
