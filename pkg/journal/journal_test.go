package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestBeginAndFinish(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	id, err := j.Begin(ctx, "install")
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if id == "" {
		t.Fatal("Begin should return an entry id")
	}

	if err := j.Finish(ctx, id, true, false, "installed runtime 1.0.9"); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	entries, err := j.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.ID != id || e.Operation != "install" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.Success || e.RestartRequired {
		t.Errorf("unexpected outcome flags: %+v", e)
	}
	if e.FinishedAt == nil {
		t.Error("finished entry should have a finish time")
	}
	if e.Detail != "installed runtime 1.0.9" {
		t.Errorf("unexpected detail: %q", e.Detail)
	}
}

func TestListNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for _, op := range []string{"install", "initialize", "uninstall"} {
		id, err := j.Begin(ctx, op)
		if err != nil {
			t.Fatal(err)
		}
		if err := j.Finish(ctx, id, true, false, ""); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(entries))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
