package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeDownloader struct {
	fetched []string
	fail    bool
}

func (f *fakeDownloader) Fetch(ctx context.Context, url, dest, proxy string) error {
	if f.fail {
		return errors.New("connection refused")
	}
	f.fetched = append(f.fetched, url)
	return os.WriteFile(dest, []byte("artifact"), 0o644)
}

func TestAcquirePrefersOfflineSource(t *testing.T) {
	offline := t.TempDir()
	cached := filepath.Join(offline, "runtime-1.0.9.cab")
	if err := os.WriteFile(cached, []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	dl := &fakeDownloader{}
	a := New(dl)

	path, temporary, err := a.Acquire(context.Background(), Spec{
		Description: "runtime package",
		RemoteURL:   "https://example.net/runtime.cab",
		LocalName:   "runtime.cab",
		CacheGlob:   "runtime-*.cab",
	}, offline, "")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if path != cached {
		t.Errorf("expected offline path %q, got %q", cached, path)
	}
	if temporary {
		t.Error("offline artifacts are not temporary")
	}
	if len(dl.fetched) != 0 {
		t.Error("no download should happen when an offline copy exists")
	}
}

func TestAcquireDownloadsWhenNotCached(t *testing.T) {
	dl := &fakeDownloader{}
	a := New(dl)
	a.scratchDir = t.TempDir()

	path, temporary, err := a.Acquire(context.Background(), Spec{
		Description: "runtime package",
		RemoteURL:   "https://example.net/runtime.cab",
		LocalName:   "runtime.cab",
		CacheGlob:   "runtime-*.cab",
	}, t.TempDir(), "")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !temporary {
		t.Error("downloaded artifacts must be flagged temporary")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("downloaded artifact should exist: %v", err)
	}
	if len(dl.fetched) != 1 {
		t.Errorf("expected 1 download, got %d", len(dl.fetched))
	}
}

func TestAcquireOfflineOnlyMiss(t *testing.T) {
	a := New(&fakeDownloader{})

	_, _, err := a.Acquire(context.Background(), Spec{
		Description: "vendored installer",
		CacheGlob:   "installer-*.zip",
	}, t.TempDir(), "")
	if err == nil {
		t.Fatal("expected error when artifact has no remote fallback")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestAcquireDownloadFailure(t *testing.T) {
	a := New(&fakeDownloader{fail: true})
	a.scratchDir = t.TempDir()

	_, _, err := a.Acquire(context.Background(), Spec{
		Description: "runtime package",
		RemoteURL:   "https://example.net/runtime.cab",
		LocalName:   "runtime.cab",
		CacheGlob:   "runtime-*.cab",
	}, "", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
