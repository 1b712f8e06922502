package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/edgectl/edgectl/pkg/configdoc"
	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/platform"
)

// runtimeHostEnv is the host-scoped variable client tools use to find
// the runtime management endpoint.
const runtimeHostEnv = "IOTEDGE_HOST"

// firewallRuleName labels the inbound exception for the runtime ports.
const firewallRuleName = "iotedged allow inbound 15580,15581"

// Initialize provisions an installed runtime: it writes the config
// document, publishes the endpoint environment and starts the service.
// An existing config document is never overwritten; reprovisioning a
// configured device requires uninstalling with --delete-config first.
func (o *Orchestrator) Initialize(ctx context.Context, req InitializeRequest) (res Result, err error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	ctx, span := o.startSpan(ctx, "initialize")
	defer func() { endSpan(span, err) }()

	journalID := o.journalBegin(ctx, "initialize")
	defer func() { o.journalFinish(ctx, journalID, err == nil, false, res.Message) }()

	state, err := o.deps.Inspector.State(ctx)
	if err != nil {
		return Result{}, NewPreconditionError("could not inspect host state: " + err.Error())
	}
	if !state.RuntimeInstalled || !state.EngineInstalled {
		return Result{}, NewPreconditionError(
			"the runtime is not fully installed; run install first")
	}

	configExists := configdoc.Exists(o.deps.Layout.ConfigPath)
	if req.Provisioning.Mode == ProvisioningExisting {
		if !configExists {
			return Result{}, NewPreconditionError(
				"no config document found to reuse; provision with manual or dps instead")
		}
		log.Info().Str("path", o.deps.Layout.ConfigPath).Msg("Reusing existing config document")
	} else {
		if configExists {
			return Result{}, NewPreconditionError(
				"a config document already exists and will not be overwritten; uninstall with --delete-config to reprovision")
		}
		if err := o.writeConfig(req); err != nil {
			return Result{}, err
		}
	}

	if err := o.deps.Env.AddDirs(ctx, o.deps.Layout.InstallDir, o.deps.Layout.EngineInstallDir); err != nil {
		return Result{}, NewCommandError("failed to update the machine search path", err)
	}
	if err := o.deps.Env.SetHostEnv(ctx, runtimeHostEnv, o.deps.Layout.ManagementURI); err != nil {
		return Result{}, NewCommandError("failed to publish the management endpoint", err)
	}

	if req.ContainerOs == hostinfo.ContainerOsLinux {
		rule := platform.FirewallRule{
			Name:      firewallRuleName,
			Program:   filepath.Join(o.deps.Layout.InstallDir, "iotedged.exe"),
			PortRange: "15580-15581",
		}
		if err := o.deps.Firewall.AddRule(ctx, rule); err != nil {
			return Result{}, NewCommandError("failed to add the firewall exception", err)
		}
	}

	if err := o.deps.Services.Start(ctx, o.deps.Layout.ServiceName); err != nil {
		return Result{}, NewCommandError("failed to start the runtime service", err)
	}

	res = Result{Success: true, Message: "device provisioned and runtime started"}
	log.Info().Msg("Edge runtime initialized")
	return res, nil
}

// writeConfig renders a fresh config document from the template and
// applies every requested setting. The document only reaches disk once
// all patches have landed, so a patch miss leaves nothing behind.
func (o *Orchestrator) writeConfig(req InitializeRequest) error {
	file := configdoc.NewFileFromTemplate(o.deps.Layout.ConfigPath)
	doc := file.Document()

	switch req.Provisioning.Mode {
	case ProvisioningManual:
		if err := doc.SetManualProvisioning(req.Provisioning.ConnectionString); err != nil {
			return NewPatchError("failed to set manual provisioning", err)
		}
	case ProvisioningDPS:
		p := req.Provisioning
		if err := doc.SetDpsProvisioning(p.effectiveEndpoint(), p.ScopeID, p.RegistrationID); err != nil {
			return NewPatchError("failed to set dps provisioning", err)
		}
	}

	if req.Agent.Image != "" {
		if err := doc.SetAgentImage(req.Agent.Image); err != nil {
			return NewPatchError("failed to set the agent image", err)
		}
	}
	if req.Agent.HasCredentials() {
		if err := doc.SetAgentAuth(req.Agent.Registry, req.Agent.Username, req.Agent.Password); err != nil {
			return NewPatchError("failed to set the registry credentials", err)
		}
	}

	hostname := req.Hostname
	if hostname == "" {
		name, err := os.Hostname()
		if err != nil {
			return NewPreconditionError("could not determine the host name: " + err.Error())
		}
		hostname = name
	}
	if err := doc.SetHostname(hostname); err != nil {
		return NewPatchError("failed to set the hostname", err)
	}

	if err := doc.SetConnectEndpoints(o.deps.Layout.ManagementURI, o.deps.Layout.WorkloadURI); err != nil {
		return NewPatchError("failed to set the connect endpoints", err)
	}
	if err := doc.SetListenEndpoints(o.deps.Layout.ManagementURI, o.deps.Layout.WorkloadURI); err != nil {
		return NewPatchError("failed to set the listen endpoints", err)
	}
	if err := doc.SetHomedir(o.deps.Layout.DataDir); err != nil {
		return NewPatchError("failed to set the home directory", err)
	}
	if err := doc.SetEngineEndpoint(o.deps.Layout.EngineEndpoint(req.ContainerOs)); err != nil {
		return NewPatchError("failed to set the engine endpoint", err)
	}
	if req.ContainerOs == hostinfo.ContainerOsLinux {
		if err := doc.SetEngineNetwork(o.deps.Layout.EngineNetwork); err != nil {
			return NewPatchError("failed to set the engine network", err)
		}
	}

	if err := file.Save(); err != nil {
		return NewCommandError("failed to write the config document", err)
	}
	log.Info().Str("path", file.Path()).Msg("Wrote config document")
	return nil
}
