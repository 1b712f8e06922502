package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edgectl/edgectl/pkg/hostinfo"
)

func TestInstallFreshHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.orch.Install(ctx, InstallRequest{ContainerOs: hostinfo.ContainerOsWindows})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !res.Success || res.RestartRequired {
		t.Errorf("unexpected result: %+v", res)
	}

	if len(f.packages.installedArtifacts) != 1 || f.packages.installedArtifacts[0] != f.art.path {
		t.Errorf("package manager should install the acquired artifact, got %v", f.packages.installedArtifacts)
	}
	if len(f.features.enabled) != 1 || f.features.enabled[0] != containersFeature {
		t.Errorf("container support should be enabled, got %v", f.features.enabled)
	}

	// Services are stopped defensively before the package lands, with
	// a settle delay after.
	if len(f.services.stopped) != 2 {
		t.Errorf("both services should be stopped, got %v", f.services.stopped)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != stopSettleDelay {
		t.Errorf("expected one settle delay, got %v", f.sleeps)
	}

	for _, dir := range []string{f.layout.DataDir, filepath.Join(f.layout.DataDir, "run")} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("data directory %s should exist: %v", dir, err)
		}
	}
	if len(f.env.dirs) != 2 {
		t.Errorf("install dirs should be added to the search path, got %v", f.env.dirs)
	}

	if len(f.journal.finished) != 1 || !f.journal.finished[0].success {
		t.Errorf("journal should record a successful install, got %+v", f.journal.finished)
	}
}

func TestInstallLinuxModeSkipsContainerFeature(t *testing.T) {
	f := newFixture(t)

	if _, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsLinux}); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if len(f.features.enabled) != 0 {
		t.Errorf("Linux container mode should not enable the OS feature, got %v", f.features.enabled)
	}
}

func TestInstallRefusesInstalledHost(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	_, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsWindows})
	if !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "update") {
		t.Errorf("error should direct toward update, got %v", err)
	}
	if len(f.packages.installedArtifacts) != 0 {
		t.Error("no package should be installed")
	}
}

func TestInstallRefusesPartialInstall(t *testing.T) {
	f := newFixture(t)
	f.services.registered[f.layout.EngineServiceName] = true

	_, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsWindows})
	if !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "uninstall") {
		t.Errorf("error should direct toward uninstall, got %v", err)
	}
}

func TestInstallChecksOsBuild(t *testing.T) {
	tests := []struct {
		name        string
		build       int
		containerOs hostinfo.ContainerOs
		wantErr     bool
	}{
		{"windows containers on the supported build", 17763, hostinfo.ContainerOsWindows, false},
		{"windows containers on a newer build", 18362, hostinfo.ContainerOsWindows, true},
		{"linux containers above the minimum", 18362, hostinfo.ContainerOsLinux, false},
		{"linux containers below the minimum", 10240, hostinfo.ContainerOsLinux, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.orch.deps.Inspector = hostinfo.New(f.layout, f.services, f.packages,
				hostinfo.WithOsBuild(func() (int, error) { return tt.build, nil }),
				hostinfo.WithConstrainedOs(false),
			)

			_, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: tt.containerOs})
			if tt.wantErr {
				if !IsPrecondition(err) {
					t.Fatalf("expected a precondition error, got %v", err)
				}
				if len(f.packages.installedArtifacts) != 0 {
					t.Error("incompatible host must not be mutated")
				}
			} else if err != nil {
				t.Fatalf("Install failed: %v", err)
			}
		})
	}
}

func TestInstallRebootPendingSuspends(t *testing.T) {
	f := newFixture(t)
	f.packages.rebootOnInstall = true

	res, err := f.orch.Install(context.Background(), InstallRequest{
		ContainerOs:     hostinfo.ContainerOsWindows,
		RestartIfNeeded: true,
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !res.Success || !res.RestartRequired {
		t.Errorf("install should suspend pending reboot, got %+v", res)
	}
	if len(f.services.started) != 0 {
		t.Error("no service should start while a reboot is pending")
	}
	if len(f.journal.finished) != 1 || !f.journal.finished[0].restartRequired {
		t.Errorf("journal should record the pending reboot, got %+v", f.journal.finished)
	}
}

func TestInstallFeatureRebootAccumulates(t *testing.T) {
	f := newFixture(t)
	f.features.reboot = true

	res, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsWindows})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	// The package install itself did not need a reboot, but the
	// requirement set by the feature step must hold to the end.
	if !res.RestartRequired {
		t.Error("feature-enable reboot requirement should persist")
	}
}

func TestInstallRemovesDownloadedArtifact(t *testing.T) {
	f := newFixture(t)
	f.art.temporary = true

	if _, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsWindows}); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if _, err := os.Stat(f.art.path); !os.IsNotExist(err) {
		t.Error("downloaded artifact should be removed after use")
	}
}

func TestInstallPropagatesAcquireFailure(t *testing.T) {
	f := newFixture(t)
	f.art.err = os.ErrNotExist

	_, err := f.orch.Install(context.Background(), InstallRequest{ContainerOs: hostinfo.ContainerOsWindows})
	if !IsResource(err) {
		t.Fatalf("expected a resource error, got %v", err)
	}
	if len(f.packages.installedArtifacts) != 0 {
		t.Error("no package should be installed without an artifact")
	}
}

func TestInstallForwardsOfflineAndProxy(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Install(context.Background(), InstallRequest{
		ContainerOs:             hostinfo.ContainerOsWindows,
		Proxy:                   "http://proxy:3128",
		OfflineInstallationPath: `D:\offline`,
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if f.art.offline != `D:\offline` || f.art.proxy != "http://proxy:3128" {
		t.Errorf("acquire should receive offline dir and proxy, got %q %q", f.art.offline, f.art.proxy)
	}
	if len(f.art.requested) != 1 || f.art.requested[0].CacheGlob != "*.cab" {
		t.Errorf("unexpected artifact request: %+v", f.art.requested)
	}
}
