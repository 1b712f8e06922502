package commands

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/edgectl/edgectl/pkg/artifacts"
	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/journal"
	"github.com/edgectl/edgectl/pkg/lifecycle"
	"github.com/edgectl/edgectl/pkg/platform"
	"github.com/edgectl/edgectl/pkg/runner"
	"github.com/edgectl/edgectl/pkg/telemetry"
)

// newOrchestrator wires the production toolchain. The returned cleanup
// closes the journal and flushes any pending trace spans.
func newOrchestrator(ctx context.Context) (*lifecycle.Orchestrator, func(), error) {
	r := runner.New()
	layout := hostinfo.DefaultLayout()

	constrained := hostinfo.ConstrainedOs()
	packages, services := platform.Select(constrained, r)
	inspector := hostinfo.New(layout, services, packages)

	tracer, err := telemetry.NewTracer(telemetry.TracingConfig{Enabled: enableTrace}, "edgectl", cliVersion)
	if err != nil {
		return nil, nil, err
	}

	deps := lifecycle.Deps{
		Layout:    layout,
		Inspector: inspector,
		Packages:  packages,
		Services:  services,
		Features:  platform.NewDismFeatureManager(r),
		Firewall:  platform.NewNetshFirewall(r),
		EngineFor: func(os hostinfo.ContainerOs) platform.ContainerEngine {
			cli := filepath.Join(layout.EngineInstallDir, "docker.exe")
			return platform.NewDockerCliEngine(r, cli, layout.EngineEndpoint(os))
		},
		Env:       platform.NewMachineEnvPath(r),
		Artifacts: artifacts.New(platform.NewHTTPDownloader()),
		EventLog:  platform.NewWevtutilLog(r),
		Tracer:    tracer,
	}

	// History is additive; a host where the journal cannot open still
	// gets a working installer.
	j, err := journal.Open(ctx, journalPath(layout))
	if err != nil {
		log.Warn().Err(err).Msg("Operation history is unavailable")
	} else {
		deps.Journal = j
	}

	cleanup := func() {
		if j != nil {
			_ = j.Close()
		}
		_ = tracer.Shutdown(context.Background())
	}
	return lifecycle.NewOrchestrator(deps), cleanup, nil
}

func journalPath(layout hostinfo.Layout) string {
	return filepath.Join(layout.DataDir, "edgectl-history.db")
}
