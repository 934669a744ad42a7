package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hyperengineering/liferpg/internal/types"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return msg
}

func TestHub_NewSubscriberGetsLastRender(t *testing.T) {
	// Given: a hub that has rendered a dashboard
	h := NewHub(time.Minute)
	defer h.Close()
	h.Render(types.Dashboard{XP: 230, Level: 1})

	// When: a client connects
	conn := dialHub(t, h)

	// Then: the client receives the last render straight away
	msg := readMessage(t, conn)
	if msg["type"] != MessageRender {
		t.Fatalf("type = %v, want render", msg["type"])
	}
	dash, ok := msg["dashboard"].(map[string]any)
	if !ok || dash["xp"] != float64(230) {
		t.Errorf("dashboard = %v", msg["dashboard"])
	}
}

func TestHub_BroadcastsRenderAndNotify(t *testing.T) {
	h := NewHub(time.Minute)
	defer h.Close()
	h.Render(types.Dashboard{XP: 1})
	conn := dialHub(t, h)
	readMessage(t, conn)

	h.Render(types.Dashboard{XP: 1050, Level: 2})
	msg := readMessage(t, conn)
	if msg["type"] != MessageRender {
		t.Fatalf("type = %v, want render", msg["type"])
	}

	h.Notify(Event{Kind: KindLevelUp, Title: "Level 2", Level: 2})
	msg = readMessage(t, conn)
	if msg["type"] != MessageNotify || msg["kind"] != string(KindLevelUp) || msg["level"] != float64(2) {
		t.Errorf("notify message = %v", msg)
	}
	if _, ok := msg["dashboard"]; ok {
		t.Error("notify message carries a dashboard")
	}
	if h.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", h.Subscribers())
	}
}

func TestHub_NotifyIsFollowedByDismissal(t *testing.T) {
	h := NewHub(30 * time.Millisecond)
	defer h.Close()
	h.Render(types.Dashboard{})
	conn := dialHub(t, h)
	readMessage(t, conn)

	h.Notify(Event{Kind: KindQuestCompleted, Title: "Skydiving", XP: 50})
	readMessage(t, conn)

	msg := readMessage(t, conn)
	if msg["type"] != MessageToastDismiss {
		t.Errorf("type = %v, want toast_dismiss", msg["type"])
	}
}

func TestHub_DropsClosedSubscribers(t *testing.T) {
	h := NewHub(time.Minute)
	defer h.Close()
	h.Render(types.Dashboard{})
	conn := dialHub(t, h)
	readMessage(t, conn)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers = %d after client closed", h.Subscribers())
	}
}

func TestHub_StaleRenderDropped(t *testing.T) {
	// Given: revision 2 has already been rendered
	h := NewHub(time.Minute)
	defer h.Close()
	h.Render(types.Dashboard{Revision: 2, XP: 200})

	// When: an older dashboard arrives late
	h.Render(types.Dashboard{Revision: 1, XP: 100})

	// Then: new subscribers still see revision 2
	conn := dialHub(t, h)
	msg := readMessage(t, conn)
	dash, _ := msg["dashboard"].(map[string]any)
	if dash["revision"] != float64(2) || dash["xp"] != float64(200) {
		t.Errorf("dashboard = %v, want revision 2", dash)
	}
}

func TestHub_RejectsCrossOriginBrowsers(t *testing.T) {
	h := NewHub(time.Minute)
	defer h.Close()
	srv := httptest.NewServer(h)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"no origin", "", true},
		{"same host", srv.URL, true},
		{"other site", "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if conn != nil {
				conn.Close()
			}
			if tt.ok && err != nil {
				t.Fatalf("dial: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("cross-origin dial succeeded")
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Errorf("response = %v, want 403", resp)
				}
			}
		})
	}
}
