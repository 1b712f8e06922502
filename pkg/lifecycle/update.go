package lifecycle

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/edgectl/edgectl/pkg/hostinfo"
)

// Update replaces the installed runtime package in place, preserving
// the device configuration. Only a complete current-layout install can
// be updated; a legacy install must be uninstalled and reinstalled.
func (o *Orchestrator) Update(ctx context.Context, req UpdateRequest) (res Result, err error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	ctx, span := o.startSpan(ctx, "update")
	defer func() { endSpan(span, err) }()

	journalID := o.journalBegin(ctx, "update")
	defer func() { o.journalFinish(ctx, journalID, err == nil, res.RestartRequired, res.Message) }()

	state, err := o.deps.Inspector.State(ctx)
	if err != nil {
		return Result{}, NewPreconditionError("could not inspect host state: " + err.Error())
	}
	if !state.RuntimeInstalled || !state.EngineInstalled {
		return Result{}, NewPreconditionError(
			"the runtime is not fully installed; run install first")
	}
	if state.Layout != hostinfo.LayoutCurrent {
		return Result{}, NewPreconditionError(
			"a legacy installation cannot be updated in place; run uninstall and then install")
	}
	if o.deps.Inspector.NeedsRelocation() {
		return Result{}, NewPreconditionError(
			"the installation sits at the pre-package path and must be relocated; run uninstall and then install")
	}
	if err := o.checkOsCompat(req.ContainerOs); err != nil {
		return Result{}, err
	}

	log.Info().Msg("Updating edge runtime")

	var restart RestartRequirement
	if err := o.installPackage(ctx, req.Proxy, req.OfflineInstallationPath, &restart); err != nil {
		return Result{}, err
	}

	if restart.Required() {
		msg := "update staged; reboot the host to complete it"
		if !req.RestartIfNeeded {
			log.Warn().Msg("A reboot is required to complete the update")
		}
		return Result{Success: true, RestartRequired: true, Message: msg}, nil
	}

	if err := o.deps.Services.Start(ctx, o.deps.Layout.ServiceName); err != nil {
		return Result{}, NewCommandError("failed to restart the runtime service", err)
	}

	res = Result{Success: true, Message: "runtime updated"}
	log.Info().Msg("Edge runtime updated")
	return res, nil
}
