package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/edgectl/edgectl/pkg/hostinfo"
)

// containersFeature is the OS feature required for Windows container
// mode on full editions.
const containersFeature = "Containers"

// Install performs the first-time installation of the runtime and its
// container engine. The host must have neither component present; a
// partial or complete install aborts with guidance toward Update or
// Initialize instead.
func (o *Orchestrator) Install(ctx context.Context, req InstallRequest) (res Result, err error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	ctx, span := o.startSpan(ctx, "install")
	defer func() { endSpan(span, err) }()

	journalID := o.journalBegin(ctx, "install")
	defer func() { o.journalFinish(ctx, journalID, err == nil, res.RestartRequired, res.Message) }()

	state, err := o.deps.Inspector.State(ctx)
	if err != nil {
		return Result{}, NewPreconditionError("could not inspect host state: " + err.Error())
	}
	if state.RuntimeInstalled && state.EngineInstalled {
		return Result{}, NewPreconditionError(
			"the runtime is already installed; run update to upgrade it, or initialize to configure it")
	}
	if state.RuntimeInstalled || state.EngineInstalled {
		return Result{}, NewPreconditionError(
			"a partial installation was found; run uninstall before installing again")
	}
	if err := o.checkOsCompat(req.ContainerOs); err != nil {
		return Result{}, err
	}

	log.Info().
		Str("container_os", string(req.ContainerOs)).
		Msg("Installing edge runtime")

	var restart RestartRequirement
	if err := o.enableContainerSupport(ctx, req.ContainerOs, state.IsConstrainedOs, &restart); err != nil {
		return Result{}, err
	}

	if err := o.installPackage(ctx, req.Proxy, req.OfflineInstallationPath, &restart); err != nil {
		return Result{}, err
	}

	if err := o.setupDataDirs(); err != nil {
		return Result{}, err
	}
	if err := o.deps.Env.AddDirs(ctx, o.deps.Layout.InstallDir, o.deps.Layout.EngineInstallDir); err != nil {
		return Result{}, NewCommandError("failed to update the machine search path", err)
	}

	if restart.Required() {
		msg := "installation staged; reboot the host and run install again to complete it"
		if !req.RestartIfNeeded {
			log.Warn().Msg("A reboot is required to complete the installation")
		}
		return Result{Success: true, RestartRequired: true, Message: msg}, nil
	}

	res = Result{Success: true, Message: "runtime installed; run initialize to provision the device"}
	log.Info().Msg("Edge runtime installed")
	return res, nil
}

// enableContainerSupport turns on the OS container feature where the
// edition needs it. Failure is tolerated: the feature may already be
// active or be managed out of band, and package installation surfaces
// any real gap.
func (o *Orchestrator) enableContainerSupport(ctx context.Context, containerOs hostinfo.ContainerOs, constrained bool, restart *RestartRequirement) error {
	if containerOs != hostinfo.ContainerOsWindows || constrained {
		return nil
	}
	rebootPending, err := o.deps.Features.EnableFeature(ctx, containersFeature)
	if err != nil {
		log.Warn().Err(err).Str("feature", containersFeature).Msg("Could not enable container support")
		return nil
	}
	if rebootPending {
		restart.Set()
	}
	return nil
}

// installPackage acquires the servicing artifact, stops any running
// services and applies the package.
func (o *Orchestrator) installPackage(ctx context.Context, proxy, offlineDir string, restart *RestartRequirement) error {
	artifactPath, temporary, err := o.deps.Artifacts.Acquire(ctx, runtimePackage, offlineDir, proxy)
	if err != nil {
		return NewResourceError("could not acquire the runtime package", err)
	}
	if temporary {
		defer func() {
			if rmErr := os.Remove(artifactPath); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", artifactPath).Msg("Could not remove downloaded artifact")
			}
		}()
	}

	if err := o.stopServices(ctx); err != nil {
		return err
	}

	rebootPending, err := o.deps.Packages.Install(ctx, artifactPath)
	if err != nil {
		return NewCommandError("failed to install the runtime package", err)
	}
	if rebootPending {
		restart.Set()
	}
	return nil
}

// setupDataDirs creates the runtime data root and the directory the
// communication endpoints live under. The endpoint directory is opened
// up so module processes running under service accounts can connect.
func (o *Orchestrator) setupDataDirs() error {
	dirs := []string{
		o.deps.Layout.DataDir,
		filepath.Join(o.deps.Layout.DataDir, "run"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return NewCommandError("failed to create data directory "+dir, err)
		}
	}
	return nil
}
