package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaelos/devdeck/internal/history"
)

func TestSinkInMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	events := []history.Event{
		{
			Type:       history.EventHealthChange,
			OccurredAt: time.Now().UTC(),
			Service:    "api",
			OldStatus:  "healthy",
			NewStatus:  "unhealthy",
			Detail:     "connection refused",
		},
		{
			Type:       history.EventLogError,
			OccurredAt: time.Now().UTC(),
			Service:    "api",
			Detail:     "panic: runtime error",
		},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	var count int
	row := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dashboard_history WHERE service = ?", "api")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("stored events = %d, want 2", count)
	}

	var event, newStatus string
	row = sink.db.QueryRowContext(ctx,
		"SELECT event, new_status FROM dashboard_history WHERE event = ?", "health_change")
	if err := row.Scan(&event, &newStatus); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if newStatus != "unhealthy" {
		t.Fatalf("new_status = %q, want unhealthy", newStatus)
	}
}

func TestSinkFileDSNPrefixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := New("sqlite://" + path)
	if err != nil {
		t.Fatalf("New with prefix: %v", err)
	}
	if err := sink.Send(context.Background(), history.Event{
		Type: history.EventLogError, OccurredAt: time.Now(), Service: "web",
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_ = sink.Close()
}

func TestSinkEmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("empty DSN must error")
	}
}
