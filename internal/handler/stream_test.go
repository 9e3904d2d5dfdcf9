package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wellybot/wgvpn-admin/internal/model"
)

func readMessage(t *testing.T, conn *websocket.Conn) model.StreamMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg model.StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestStreamWebsocket(t *testing.T) {
	env := newTestEnv(t, "")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ack := readMessage(t, conn)
	if ack.Type != model.MessageTypeConnected {
		t.Fatalf("first message = %+v, want connected ack", ack)
	}

	w := env.do(http.MethodPost, "/api/v1/stream/events", `{"category":"audit","actor":"admin","message":"rotated key","account_id":5,"account_label":"dave"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("publish: %d %s", w.Code, w.Body.String())
	}

	msg := readMessage(t, conn)
	if msg.Type != model.MessageTypeLog || msg.Category != model.CategoryAudit {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Message != "admin: rotated key" || msg.AccountLabel != "dave" || msg.Level != model.LevelInfo {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.AccountID == nil || *msg.AccountID != 5 {
		t.Fatalf("account id = %v", msg.AccountID)
	}
}

func TestPublishAuditDefaultsActorToSubject(t *testing.T) {
	env := newTestEnv(t, testSecret)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	token := signToken(t, testSecret, time.Now().Add(time.Hour))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readMessage(t, conn)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stream/events", strings.NewReader(`{"category":"audit","message":"disabled account"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("publish: %d %s", w.Code, w.Body.String())
	}

	if msg := readMessage(t, conn); msg.Message != "42: disabled account" {
		t.Fatalf("message = %q, want token subject as actor", msg.Message)
	}
}

func TestStreamRequiresToken(t *testing.T) {
	env := newTestEnv(t, testSecret)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	if _, resp, err := websocket.DefaultDialer.Dial(base, nil); err == nil {
		t.Fatalf("dial without token should fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+signToken(t, testSecret, time.Now().Add(time.Hour)), nil)
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	defer conn.Close()
	if ack := readMessage(t, conn); ack.Type != model.MessageTypeConnected {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}
