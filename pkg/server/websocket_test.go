package server

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialForm(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return snap
}

func exchange(t *testing.T, conn *websocket.Conn, msgType, value string) Snapshot {
	t.Helper()
	if err := conn.WriteJSON(clientMessage{Type: msgType, Value: value}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
	return readSnapshot(t, conn)
}

func TestWebSocket_FormSession(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))
	conn := dialForm(t, ts.URL)
	defer conn.Close()

	initial := readSnapshot(t, conn)
	if initial.SessionID == "" || initial.Provider != "gh" || initial.LaunchURL != "" {
		t.Fatalf("initial snapshot = %+v", initial)
	}
	if srv.SessionCount() != 1 {
		t.Errorf("SessionCount = %d, want 1", srv.SessionCount())
	}

	snap := exchange(t, conn, MsgRepo, "https://github.com/binder-examples/requirements")
	if snap.Repo != "binder-examples/requirements" || !snap.Accepted {
		t.Errorf("after repo: %+v", snap)
	}
	if snap.LaunchURL != "https://binder.example.org/v2/gh/binder-examples/requirements/HEAD" {
		t.Errorf("launchUrl = %q", snap.LaunchURL)
	}
	if snap.SessionID != initial.SessionID {
		t.Error("session id changed between snapshots")
	}

	snap = exchange(t, conn, MsgPath, "index.ipynb")
	if snap.URLPath != "/doc/tree/index.ipynb" {
		t.Errorf("urlPath = %q", snap.URLPath)
	}
	snap = exchange(t, conn, MsgKind, "url")
	if snap.URLPath != "index.ipynb" {
		t.Errorf("urlPath after kind switch = %q", snap.URLPath)
	}

	snap = exchange(t, conn, MsgBadge, "rst")
	if !strings.HasPrefix(snap.Badge, ".. image:: https://binder.example.org/badge_logo.svg") {
		t.Errorf("badge = %q", snap.Badge)
	}

	snap = exchange(t, conn, MsgProvider, "zenodo")
	if snap.Provider != "zenodo" || snap.EffectiveRef != "" {
		t.Errorf("after provider switch: %+v", snap)
	}
}

func TestWebSocket_InvalidMessagesKeepState(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	conn := dialForm(t, ts.URL)
	defer conn.Close()
	readSnapshot(t, conn)

	exchange(t, conn, MsgProvider, "user")
	exchange(t, conn, MsgRepo, "jdoe")

	snap := exchange(t, conn, MsgRepo, "not a user!")
	if snap.Accepted || snap.Repo != "jdoe" || snap.Error != nil {
		t.Errorf("rejected input: %+v", snap)
	}

	tests := []struct {
		msgType, value, wantCode string
	}{
		{MsgProvider, "svn", "E120"},
		{MsgBadge, "html", "E121"},
		{MsgKind, "dir", "E122"},
		{"color", "red", "E124"},
	}
	for _, tt := range tests {
		snap := exchange(t, conn, tt.msgType, tt.value)
		if snap.Error == nil || snap.Error.Code != tt.wantCode {
			t.Errorf("%s=%s: error = %+v, want %s", tt.msgType, tt.value, snap.Error, tt.wantCode)
		}
		if snap.Provider != "user" || snap.Repo != "jdoe" {
			t.Errorf("%s=%s changed state: %+v", tt.msgType, tt.value, snap)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	snap = readSnapshot(t, conn)
	if snap.Error == nil || snap.Error.Code != "E124" {
		t.Errorf("malformed message error = %+v", snap.Error)
	}
}

func TestWebSocket_SessionRemovedOnClose(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))
	conn := dialForm(t, ts.URL)
	readSnapshot(t, conn)

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for srv.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServe_ShutdownClosesSessions(t *testing.T) {
	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn := dialForm(t, "http://"+ln.Addr().String())
	defer conn.Close()
	readSnapshot(t, conn)

	cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("client read after shutdown = %v, want going-away close", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after context cancel")
	}
}
