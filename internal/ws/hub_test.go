package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.TaskEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev domain.TaskEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func waitForClients(t *testing.T, hub *Hub, owner int64, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count(owner) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients for user %d, have %d", n, owner, hub.Count(owner))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_NotifiesOnlyOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret", time.Hour)

	hub := NewHub()
	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	tokA, _ := service.GenerateJWT(1)
	tokB, _ := service.GenerateJWT(2)

	a := dial(t, srv, tokA)
	b := dial(t, srv, tokB)

	if ev := readEvent(t, a); ev.Type != domain.EventReady {
		t.Fatalf("expected ready, got %+v", ev)
	}
	if ev := readEvent(t, b); ev.Type != domain.EventReady {
		t.Fatalf("expected ready, got %+v", ev)
	}
	waitForClients(t, hub, 1, 1)
	waitForClients(t, hub, 2, 1)

	hub.Notify(1, domain.TasksChanged(domain.AuditActionTaskCreate, 7))

	ev := readEvent(t, a)
	if ev.Type != domain.EventTasksChanged || ev.TaskID != 7 {
		t.Fatalf("unexpected event %+v", ev)
	}

	_ = b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Fatalf("other user must not receive the event")
	}
}

func TestHub_PingPongAndUnregister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret", time.Hour)

	hub := NewHub()
	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	tok, _ := service.GenerateJWT(5)
	conn := dial(t, srv, tok)
	readEvent(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": MsgPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	var msg map[string]string
	_ = json.Unmarshal(raw, &msg)
	if msg["type"] != MsgPong {
		t.Fatalf("expected pong, got %s", raw)
	}

	conn.Close()
	waitForClients(t, hub, 5, 0)
}

func TestHandleWS_RejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret", time.Hour)

	r := gin.New()
	r.GET("/ws", HandleWS(NewHub(), ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?token=garbage", nil))
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
