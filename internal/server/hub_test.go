package server

// Notes:
// - Socket tests dial a real httptest server with gorilla's dialer.
// - readPreview skips events until one matches, since intermediate events
//   may be coalesced away.

import (
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	mdexport "github.com/alnah/go-mdexport"
)

type wireEvent struct {
	Type string `json:"type"`
	mdexport.PreviewEvent
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readPreview(t *testing.T, conn *websocket.Conn, match func(wireEvent) bool) wireEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if ev.Type != MessagePreview {
			t.Fatalf("event type = %q, want %q", ev.Type, MessagePreview)
		}
		if match(ev) {
			return ev
		}
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	for range 250 {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ---------------------------------------------------------------------------
// TestHub
// ---------------------------------------------------------------------------

func TestHub_SeedsNewClient(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, newStubEngine(), mdexport.WithInitialText("_seed_"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	ev := readPreview(t, conn, func(wireEvent) bool { return true })
	if ev.Text != "_seed_" || !strings.Contains(ev.HTML, "<em>seed</em>") {
		t.Errorf("seed event = %+v", ev)
	}
}

func TestHub_EditBroadcasts(t *testing.T) {
	t.Parallel()

	srv, session := newTestServer(t, newStubEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	writer := dial(t, ts)
	watcher := dial(t, ts)
	waitFor(t, func() bool { return srv.Hub().ClientCount() == 2 }, "two clients")

	if err := writer.WriteJSON(clientMessage{Type: MessageEdit, Text: "# Live"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := readPreview(t, watcher, func(ev wireEvent) bool { return ev.Text == "# Live" })
	if !strings.Contains(ev.HTML, "Live</h1>") {
		t.Errorf("broadcast html = %q", ev.HTML)
	}
	if session.Text() != "# Live" {
		t.Errorf("session text = %q", session.Text())
	}
}

func TestHub_MountFollowsClients(t *testing.T) {
	t.Parallel()

	srv, session := newTestServer(t, newStubEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	if err := conn.WriteJSON(clientMessage{Type: MessageMount, Width: 640}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readPreview(t, conn, func(ev wireEvent) bool { return ev.Mounted })

	if !session.Mounted() {
		t.Fatal("session should be mounted")
	}

	_ = conn.Close()
	waitFor(t, func() bool { return !session.Mounted() }, "unmount after disconnect")
}

func TestHub_InvalidMountIgnored(t *testing.T) {
	t.Parallel()

	srv, session := newTestServer(t, newStubEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	if err := conn.WriteJSON(clientMessage{Type: MessageMount, Width: -1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(clientMessage{Type: MessageEdit, Text: "after"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readPreview(t, conn, func(ev wireEvent) bool { return ev.Text == "after" })

	if session.Mounted() {
		t.Error("negative width should not mount the preview")
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, newStubEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	readPreview(t, conn, func(wireEvent) bool { return true })

	srv.Hub().Close()
	srv.Hub().Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}

func TestHub_EditBurstArrivesInOrder(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, newStubEngine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	writer := dial(t, ts)
	watcher := dial(t, ts)
	waitFor(t, func() bool { return srv.Hub().ClientCount() == 2 }, "two clients")

	const edits = 50
	for i := range edits {
		if err := writer.WriteJSON(clientMessage{Type: MessageEdit, Text: fmt.Sprintf("edit %d", i)}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var last uint64
	final := fmt.Sprintf("edit %d", edits-1)
	readPreview(t, watcher, func(ev wireEvent) bool {
		if ev.Version <= last {
			t.Errorf("version %d arrived after %d", ev.Version, last)
		}
		last = ev.Version
		return ev.Text == final
	})
}

// ---------------------------------------------------------------------------
// Coalescing
// ---------------------------------------------------------------------------

func TestClient_OfferKeepsLatest(t *testing.T) {
	t.Parallel()

	c := &client{send: make(chan outbound, 2)}
	for v := uint64(1); v <= 4; v++ {
		c.offer(outbound{version: v})
	}

	var got []uint64
	for len(c.send) > 0 {
		got = append(got, (<-c.send).version)
	}
	if len(got) == 0 || got[len(got)-1] != 4 {
		t.Fatalf("queued versions = %v, want newest 4 last", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("queued versions out of order: %v", got)
		}
	}
}

func TestHub_PublishKeepsNewest(t *testing.T) {
	t.Parallel()

	h := &Hub{logger: slog.New(slog.DiscardHandler), notify: make(chan struct{}, 1)}
	for _, v := range []uint64{3, 2, 5, 4} {
		h.publish(mdexport.PreviewEvent{Version: v, Text: fmt.Sprint(v)})
	}

	msg, ok := h.takePending()
	if !ok || msg.version != 5 {
		t.Fatalf("takePending() = %d, %v, want 5", msg.version, ok)
	}
	if !strings.Contains(string(msg.data), `"text":"5"`) {
		t.Errorf("pending data = %s", msg.data)
	}
	if _, ok := h.takePending(); ok {
		t.Error("pending should be empty after take")
	}
	if len(h.notify) != 1 {
		t.Errorf("notify len = %d, want 1", len(h.notify))
	}
}
