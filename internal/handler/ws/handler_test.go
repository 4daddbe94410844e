package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/conversation"
)

type stubAdvisor struct{ reply string }

func (s *stubAdvisor) GetAdvisory(context.Context, string, string) (string, error) {
	return s.reply, nil
}

func dialFeed(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/conversation/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) chat.Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap chat.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot err: %v", err)
	}
	return snap
}

func TestFeedDeliversInitialSnapshotAndUpdates(t *testing.T) {
	convSvc := conversation.NewService(&stubAdvisor{reply: "🌱 Crop: Tomato"})
	convSvc.Hydrate([]chat.Message{
		{ID: "1", Role: chat.RoleUser, Text: "old question", Timestamp: 1},
	})

	hub := NewHub()
	convSvc.OnChange(hub.Broadcast)

	r := chi.NewRouter()
	New(hub, convSvc).RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	conn := dialFeed(t, server.URL)

	initial := readSnapshot(t, conn)
	if len(initial.Messages) != 1 || initial.Messages[0].Text != "old question" {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	if _, err := convSvc.Submit(context.Background(), "new question", ""); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	// Optimistic update first, then the completed model turn.
	optimistic := readSnapshot(t, conn)
	if !optimistic.IsLoading || len(optimistic.Messages) != 2 {
		t.Fatalf("unexpected optimistic snapshot: %+v", optimistic)
	}

	final := readSnapshot(t, conn)
	if final.IsLoading || len(final.Messages) != 3 {
		t.Fatalf("unexpected final snapshot: %+v", final)
	}
	if final.Messages[2].Role != chat.RoleModel || final.Messages[2].Text != "🌱 Crop: Tomato" {
		t.Fatalf("unexpected model turn: %+v", final.Messages[2])
	}
}

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	convSvc := conversation.NewService(&stubAdvisor{reply: "ok"})
	hub := NewHub()

	r := chi.NewRouter()
	New(hub, convSvc).RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	conn := dialFeed(t, server.URL)
	readSnapshot(t, conn) // initial state
	conn.Close()

	// Two broadcasts: the first may still be buffered by the kernel, the
	// second must hit the closed socket and prune it.
	for i := 0; i < 10; i++ {
		hub.Broadcast(chat.Snapshot{})
		time.Sleep(10 * time.Millisecond)

		hub.mu.Lock()
		remaining := len(hub.conns)
		hub.mu.Unlock()
		if remaining == 0 {
			return
		}
	}
	t.Fatal("closed connection was never pruned from the hub")
}
