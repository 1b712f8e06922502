// Package artifacts resolves the binary artifacts a lifecycle
// operation needs, preferring an operator-provided offline source over
// a download. Downloads land in scratch space and are flagged
// temporary for the caller to clean up; nothing is cached.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edgectl/edgectl/pkg/platform"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable reports that an artifact was found neither in the
// offline source nor at a remote location.
var ErrUnavailable = errors.New("artifact unavailable")

// Spec describes one required artifact.
type Spec struct {
	// Description names the artifact for logs and errors.
	Description string

	// RemoteURL is where to download the artifact from when no
	// offline copy exists. Empty means offline-only.
	RemoteURL string

	// LocalName is the file name for a downloaded copy.
	LocalName string

	// CacheGlob matches candidate files in the offline directory.
	CacheGlob string
}

// Acquirer resolves artifacts.
type Acquirer struct {
	downloader platform.Downloader

	// scratchDir receives downloads. Defaults to the OS temp dir.
	scratchDir string
}

// New creates an Acquirer that downloads with dl.
func New(dl platform.Downloader) *Acquirer {
	return &Acquirer{downloader: dl, scratchDir: os.TempDir()}
}

// Acquire resolves the artifact. A file matching spec.CacheGlob under
// offlineDir wins; otherwise the artifact is downloaded to scratch
// space and temporary is true so the caller removes it after use.
func (a *Acquirer) Acquire(ctx context.Context, spec Spec, offlineDir, proxy string) (path string, temporary bool, err error) {
	if offlineDir != "" {
		matches, err := filepath.Glob(filepath.Join(offlineDir, spec.CacheGlob))
		if err != nil {
			return "", false, fmt.Errorf("bad offline glob %q: %w", spec.CacheGlob, err)
		}
		if len(matches) > 0 {
			log.Info().
				Str("artifact", spec.Description).
				Str("path", matches[0]).
				Msg("Using offline artifact")
			return matches[0], false, nil
		}
	}

	if spec.RemoteURL == "" {
		return "", false, fmt.Errorf("%s not found under %q: %w", spec.Description, offlineDir, ErrUnavailable)
	}

	dest := filepath.Join(a.scratchDir, spec.LocalName)
	log.Info().
		Str("artifact", spec.Description).
		Str("url", spec.RemoteURL).
		Msg("Downloading artifact")
	if err := a.downloader.Fetch(ctx, spec.RemoteURL, dest, proxy); err != nil {
		return "", false, fmt.Errorf("failed to acquire %s (%v): %w", spec.Description, err, ErrUnavailable)
	}
	return dest, true, nil
}
