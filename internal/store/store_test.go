package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/store"
)

func openTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestLoadEmptyDatabase(t *testing.T) {
	st, _ := openTestStore(t)

	if got := st.Load(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(got))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	messages := []chat.Message{
		{
			ID:        "1700000000000",
			Role:      chat.RoleUser,
			Text:      "My tomato leaves are turning yellow",
			Image:     "data:image/jpeg;base64,dG9tYXRv",
			Timestamp: 1700000000000,
		},
		{
			ID:        "1700000000001",
			Role:      chat.RoleModel,
			Text:      "🌱 Crop: Tomato\n📌 Problem: Yellowing leaves",
			Timestamp: 1700000000001,
		},
	}

	if err := st.Save(ctx, messages); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	got := st.Load(ctx)
	if !reflect.DeepEqual(got, messages) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, messages)
	}
}

func TestSaveOverwritesSnapshot(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	first := []chat.Message{{ID: "a", Role: chat.RoleUser, Text: "hello", Timestamp: 1}}
	if err := st.Save(ctx, first); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	if err := st.Save(ctx, nil); err != nil {
		t.Fatalf("Save err: %v", err)
	}

	if got := st.Load(ctx); len(got) != 0 {
		t.Fatalf("expected cleared history, got %d messages", len(got))
	}
}

func TestLoadMalformedPayload(t *testing.T) {
	st, path := openTestStore(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db err: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(
		"INSERT INTO chat_store (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		"kisan_sahay_chat", "{not json",
	); err != nil {
		t.Fatalf("inject malformed payload err: %v", err)
	}

	if got := st.Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty history for malformed payload, got %d messages", len(got))
	}
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	messages := []chat.Message{{ID: "a", Role: chat.RoleUser, Text: "hello", Timestamp: 1}}
	if err := st.Save(context.Background(), messages); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close err: %v", err)
	}

	reopened, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Load(context.Background()); !reflect.DeepEqual(got, messages) {
		t.Fatalf("expected history to survive reopen, got %+v", got)
	}
}
