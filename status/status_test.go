package status

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if h.Clients() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%d clients; expected %d", h.Clients(), n)
}

func TestBroadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	h.Info("before %d", 1)

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, h, 1)

	if m := readMessage(t, conn); m.Message != "before 1" || m.Type != INFO {
		t.Errorf("last message %+v", m)
	}

	h.Progress(0.5, "%s: %s", "Neutralize Parent Inverse", "Cube")
	m := readMessage(t, conn)
	if m.Type != PROGRESS || m.Progress != 0.5 || m.Message != "Neutralize Parent Inverse: Cube" {
		t.Errorf("progress message %+v", m)
	}

	zero := float32(0)
	h.Progress(zero/zero, "nan")
	if m := readMessage(t, conn); m.Progress != 0 {
		t.Errorf("NaN progress sent as %v", m.Progress)
	}

	h.Error("failed")
	if m := readMessage(t, conn); m.Type != ERROR {
		t.Errorf("error message %+v", m)
	}
}

func TestClientGone(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)
	conn.Close()
	waitClients(t, h, 0)

	// must not block or panic without clients
	h.Info("nobody listens")
}
