package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/edgectl/edgectl/pkg/platform"
)

func ownedContainer(id, name string) platform.Container {
	return platform.Container{
		ID:     id,
		Name:   name,
		Labels: map[string]string{ownerLabelKey: ownerLabelValue},
	}
}

func TestUninstallFull(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	ctx := context.Background()

	for _, dir := range []string{f.layout.InstallDir, f.layout.EngineInstallDir, f.layout.EngineDataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	f.writeConfigFile(t, "hostname: \"device-1\"\n")
	if err := os.WriteFile(filepath.Join(f.layout.DataDir, "mgmt.sock"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f.engine.containers = []platform.Container{
		{ID: "c-other", Name: "customer-app"},
		ownedContainer("c-module", "tempSensor"),
		ownedContainer("c-agent", agentContainerName),
	}

	report, err := f.orch.Uninstall(ctx, UninstallRequest{})
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if !report.Success() {
		t.Fatalf("expected a clean report, got %+v", report)
	}

	// The agent goes down first so it cannot restart the modules;
	// containers the runtime does not own stay.
	if len(f.engine.removed) != 2 || f.engine.removed[0] != "c-agent" || f.engine.removed[1] != "c-module" {
		t.Errorf("unexpected container removal order: %v", f.engine.removed)
	}

	for _, dir := range []string{f.layout.InstallDir, f.layout.EngineInstallDir, f.layout.EngineDataDir} {
		if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
			t.Errorf("%s should be removed", dir)
		}
	}

	// The config document survives for a later reinstall; everything
	// else under the data root goes.
	if _, statErr := os.Stat(f.layout.ConfigPath); statErr != nil {
		t.Errorf("config document should be preserved: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(f.layout.DataDir, "mgmt.sock")); !os.IsNotExist(statErr) {
		t.Error("runtime state under the data root should be removed")
	}

	if len(f.packages.removedPackages) != 1 || f.packages.removedPackages[0] != f.layout.PackageName {
		t.Errorf("the runtime package should be removed, got %v", f.packages.removedPackages)
	}
	if len(f.env.removedDirs) == 0 {
		t.Error("install dirs should leave the search path")
	}
	if len(f.env.removedHostEnv) != 1 || f.env.removedHostEnv[0] != runtimeHostEnv {
		t.Errorf("the endpoint variable should be removed, got %v", f.env.removedHostEnv)
	}
	if len(f.firewall.removed) != 1 || f.firewall.removed[0] != firewallRuleName {
		t.Errorf("the firewall exception should be removed, got %v", f.firewall.removed)
	}
}

func TestUninstallDeleteDataRemovesAllContainers(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	f.engine.containers = []platform.Container{
		{ID: "c-other", Name: "customer-app"},
		ownedContainer("c-agent", agentContainerName),
	}

	if _, err := f.orch.Uninstall(context.Background(), UninstallRequest{DeleteData: true}); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if len(f.engine.removed) != 2 {
		t.Errorf("delete-data should remove every container, got %v", f.engine.removed)
	}
	if f.engine.removed[0] != "c-agent" {
		t.Errorf("the agent still goes first, got %v", f.engine.removed)
	}
}

func TestUninstallDeleteConfig(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.writeConfigFile(t, "hostname: \"device-1\"\n")

	if _, err := f.orch.Uninstall(context.Background(), UninstallRequest{DeleteConfig: true}); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if _, statErr := os.Stat(f.layout.DataDir); !os.IsNotExist(statErr) {
		t.Error("delete-config should remove the whole data root")
	}
}

func TestUninstallNothingInstalled(t *testing.T) {
	f := newFixture(t)

	if _, err := f.orch.Uninstall(context.Background(), UninstallRequest{}); !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}

	report, err := f.orch.Uninstall(context.Background(), UninstallRequest{Force: true})
	if err != nil {
		t.Fatalf("forced uninstall on a clean host should succeed, got %v", err)
	}
	if !report.Success() {
		t.Errorf("expected a clean report, got %+v", report)
	}
}

func TestUninstallContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.services.removeErr = errors.New("access denied")

	report, err := f.orch.Uninstall(context.Background(), UninstallRequest{})
	if err == nil {
		t.Fatal("expected the report error")
	}
	if report.Success() {
		t.Error("the report should carry the failure")
	}

	// Later steps still ran.
	if len(f.env.removedHostEnv) != 1 {
		t.Error("cleanup should continue past a failed step")
	}
	if len(f.firewall.removed) != 1 {
		t.Error("the firewall step should still run")
	}
	if len(f.journal.finished) != 1 || f.journal.finished[0].success {
		t.Errorf("journal should record the partial failure, got %+v", f.journal.finished)
	}
}

func TestUninstallUnreachableEngineIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.engine.listErr = errors.New("pipe not found")

	report, err := f.orch.Uninstall(context.Background(), UninstallRequest{})
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if !report.Success() {
		t.Errorf("an unreachable engine should not fail cleanup, got %+v", report)
	}
}

func TestUninstallPackageRemovalRebootAdvice(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.packages.rebootOnRemove = true

	report, err := f.orch.Uninstall(context.Background(), UninstallRequest{})
	if err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if !report.RestartRequired {
		t.Error("package removal reboot should surface in the report")
	}
}

func TestUninstallRelocatesLegacyConfig(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	if err := os.MkdirAll(filepath.Dir(f.layout.LegacyConfigPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.layout.LegacyConfigPath, []byte("hostname: \"legacy-device\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.orch.Uninstall(context.Background(), UninstallRequest{}); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatalf("legacy config should move to the current location: %v", err)
	}
	if string(data) != "hostname: \"legacy-device\"\n" {
		t.Errorf("unexpected relocated config: %q", data)
	}
}
