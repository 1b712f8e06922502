package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/platform"
)

// agentContainerName is the runtime agent's container.
const agentContainerName = "edgeAgent"

// ownerLabel marks containers created and owned by the runtime.
const (
	ownerLabelKey   = "net.azure-devices.edge.owner"
	ownerLabelValue = "Microsoft.Azure.Devices.Edge.Agent"
)

// Uninstall removes the runtime, the container engine and their
// artifacts. Every step is attempted regardless of earlier failures;
// the returned report carries the per-step outcomes and the overall
// verdict. The returned error is non-nil only when at least one step
// failed.
func (o *Orchestrator) Uninstall(ctx context.Context, req UninstallRequest) (report *CleanupReport, err error) {
	ctx, span := o.startSpan(ctx, "uninstall")
	defer func() { endSpan(span, err) }()

	journalID := o.journalBegin(ctx, "uninstall")
	report = &CleanupReport{}
	defer func() {
		if report == nil {
			o.journalFinish(ctx, journalID, false, false, "")
			return
		}
		o.journalFinish(ctx, journalID, report.Success(), report.RestartRequired, "")
	}()

	state, stateErr := o.deps.Inspector.State(ctx)
	if stateErr != nil {
		return nil, NewPreconditionError("could not inspect host state: " + stateErr.Error())
	}
	if !state.RuntimeInstalled && !state.EngineInstalled && !req.Force {
		return nil, NewPreconditionError("nothing to uninstall")
	}

	containerOs := o.deps.Inspector.ReadContainerOsFromConfig()
	log.Info().
		Str("container_os", string(containerOs)).
		Bool("delete_config", req.DeleteConfig).
		Bool("delete_data", req.DeleteData).
		Msg("Uninstalling edge runtime")

	report.Record("stop runtime service", o.stopRuntimeService(ctx))
	report.Record("remove containers", o.removeContainers(ctx, containerOs, req.DeleteData))
	report.Record("remove engine service", o.removeEngineService(ctx))
	report.Record("remove runtime package", o.removeRuntimePackage(ctx, state.RuntimeInstalled, report))
	report.Record("remove runtime service registration",
		o.deps.Services.Remove(ctx, o.deps.Layout.ServiceName))

	o.removeDirectories(ctx, req, report)

	report.Record("restore machine search path", o.deps.Env.RemoveDirs(ctx,
		o.deps.Layout.InstallDir,
		o.deps.Layout.EngineInstallDir,
		o.deps.Layout.LegacyInstallDir,
		o.deps.Layout.LegacyDefaultInstallDir,
	))
	report.Record("remove endpoint environment", o.deps.Env.RemoveHostEnv(ctx, runtimeHostEnv))
	report.Record("remove firewall exception", o.deps.Firewall.RemoveRule(ctx, firewallRuleName))

	if report.Success() {
		log.Info().Msg("Edge runtime uninstalled")
		return report, nil
	}
	for _, f := range report.Failures() {
		log.Warn().Err(f.Err).Str("step", f.Name).Msg("Cleanup step failed")
	}
	return report, report.Err()
}

func (o *Orchestrator) stopRuntimeService(ctx context.Context) error {
	if err := o.deps.Services.Disable(ctx, o.deps.Layout.ServiceName); err != nil {
		return err
	}
	if err := o.deps.Services.Stop(ctx, o.deps.Layout.ServiceName); err != nil {
		return err
	}
	o.sleep(stopSettleDelay)
	return nil
}

// removeContainers stops and removes the containers the runtime owns,
// taking the agent down first so it cannot restart the others. With
// deleteData every container goes, owned or not. An unreachable engine
// is not a failure; its containers die with its data directories.
func (o *Orchestrator) removeContainers(ctx context.Context, containerOs hostinfo.ContainerOs, deleteData bool) error {
	engine := o.deps.EngineFor(containerOs)
	containers, err := engine.List(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Container engine unreachable; skipping container removal")
		return nil
	}

	ordered := make([]platform.Container, 0, len(containers))
	for _, c := range containers {
		if c.Name == agentContainerName {
			ordered = append(ordered, c)
		}
	}
	for _, c := range containers {
		if c.Name == agentContainerName {
			continue
		}
		if deleteData || c.Labels[ownerLabelKey] == ownerLabelValue {
			ordered = append(ordered, c)
		}
	}

	var firstErr error
	for _, c := range ordered {
		log.Info().Str("container", c.Name).Msg("Removing container")
		if err := engine.Stop(ctx, c.ID); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := engine.Remove(ctx, c.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (o *Orchestrator) removeEngineService(ctx context.Context) error {
	if err := o.deps.Services.Stop(ctx, o.deps.Layout.EngineServiceName); err != nil {
		return err
	}
	return o.deps.Services.Remove(ctx, o.deps.Layout.EngineServiceName)
}

// removeRuntimePackage asks the package manager to remove the runtime
// record. Skipped when the runtime was never installed.
func (o *Orchestrator) removeRuntimePackage(ctx context.Context, runtimeInstalled bool, report *CleanupReport) error {
	if !runtimeInstalled {
		return nil
	}
	packaged, err := o.deps.Packages.Installed(ctx, o.deps.Layout.PackageName)
	if err != nil {
		return err
	}
	if !packaged {
		return nil
	}
	rebootPending, err := o.deps.Packages.Remove(ctx, o.deps.Layout.PackageName)
	if rebootPending {
		report.RestartRequired = true
	}
	return err
}

// removeDirectories clears the install and data trees. A directory
// that cannot be removed is usually held by a handle the reboot will
// release, so failures set the retry advice instead of aborting.
func (o *Orchestrator) removeDirectories(ctx context.Context, req UninstallRequest, report *CleanupReport) {
	remove := func(step, dir string) {
		err := os.RemoveAll(dir)
		if err != nil {
			report.RestartRequired = true
			report.RetryAdvised = true
		}
		report.Record(step, err)
	}

	remove("remove install directory", o.deps.Layout.InstallDir)
	remove("remove engine install directory", o.deps.Layout.EngineInstallDir)
	remove("remove engine data directory", o.deps.Layout.EngineDataDir)
	for _, dir := range o.deps.Layout.LegacyEngineDataDirs {
		remove("remove legacy engine data directory", dir)
	}

	if !req.DeleteConfig {
		report.Record("preserve config document", o.relocateLegacyConfig())
	}
	// In the default layout the legacy install dir is the data root
	// itself; the data root handling below covers it.
	if o.deps.Layout.LegacyInstallDir != o.deps.Layout.DataDir {
		remove("remove legacy install directory", o.deps.Layout.LegacyInstallDir)
	}

	if req.DeleteConfig {
		remove("remove data directory", o.deps.Layout.DataDir)
	} else {
		err := o.clearDataDirExceptConfig()
		if err != nil {
			report.RestartRequired = true
			report.RetryAdvised = true
		}
		report.Record("remove data directory", err)
	}
}

// relocateLegacyConfig moves a legacy-layout config document to the
// current location so a later reinstall can reuse it.
func (o *Orchestrator) relocateLegacyConfig() error {
	legacy := o.deps.Layout.LegacyConfigPath
	current := o.deps.Layout.ConfigPath
	if legacy == "" || legacy == current {
		return nil
	}
	if _, err := os.Stat(legacy); err != nil {
		return nil
	}
	if _, err := os.Stat(current); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(current), 0o755); err != nil {
		return err
	}
	log.Info().Str("from", legacy).Str("to", current).Msg("Relocating config document")
	return os.Rename(legacy, current)
}

// clearDataDirExceptConfig empties the data directory while keeping
// the config document in place for a future reinstall.
func (o *Orchestrator) clearDataDirExceptConfig() error {
	entries, err := os.ReadDir(o.deps.Layout.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	keep := filepath.Base(o.deps.Layout.ConfigPath)
	var firstErr error
	for _, entry := range entries {
		if entry.Name() == keep {
			continue
		}
		if err := os.RemoveAll(filepath.Join(o.deps.Layout.DataDir, entry.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
