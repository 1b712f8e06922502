package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/edgectl/edgectl/pkg/artifacts"
	"github.com/edgectl/edgectl/pkg/hostinfo"
	"github.com/edgectl/edgectl/pkg/platform"
	"github.com/edgectl/edgectl/pkg/telemetry"
)

// stopSettleDelay gives the service manager time to release file
// handles after a stop before files are replaced or removed.
const stopSettleDelay = 7 * time.Second

// runtimePackage is the servicing artifact for the runtime and its
// bundled container engine.
var runtimePackage = artifacts.Spec{
	Description: "edge runtime package",
	RemoteURL:   "https://aka.ms/iotedge-win",
	LocalName:   "Microsoft-Azure-IoTEdge.cab",
	CacheGlob:   "*.cab",
}

// ArtifactSource resolves required artifacts. *artifacts.Acquirer is
// the production implementation.
type ArtifactSource interface {
	Acquire(ctx context.Context, spec artifacts.Spec, offlineDir, proxy string) (path string, temporary bool, err error)
}

// OperationJournal records operation history. *journal.Journal is the
// production implementation; a nil journal disables recording.
type OperationJournal interface {
	Begin(ctx context.Context, operation string) (string, error)
	Finish(ctx context.Context, id string, success, restartRequired bool, detail string) error
}

// EventLog reads host event log records for a provider.
type EventLog interface {
	Query(ctx context.Context, provider string, since time.Time) ([]platform.LogEntry, error)
}

// Deps are the capabilities an Orchestrator operates through. Every
// field except Journal, EventLog and Tracer is required.
type Deps struct {
	Layout    hostinfo.Layout
	Inspector *hostinfo.Inspector
	Packages  platform.PackageManager
	Services  platform.ServiceManager
	Features  platform.FeatureManager
	Firewall  platform.Firewall

	// EngineFor builds an engine client for the endpoint selected by
	// container mode.
	EngineFor func(os hostinfo.ContainerOs) platform.ContainerEngine

	Env       platform.EnvPath
	Artifacts ArtifactSource
	Journal   OperationJournal
	EventLog  EventLog
	Tracer    *telemetry.Tracer
}

// Orchestrator runs the lifecycle operations.
type Orchestrator struct {
	deps Deps

	// sleep is indirected for tests.
	sleep func(time.Duration)
}

// NewOrchestrator creates an orchestrator over the given capabilities.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps, sleep: time.Sleep}
}

// startSpan opens a tracing span when a tracer is configured.
func (o *Orchestrator) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if o.deps.Tracer == nil {
		return ctx, nil
	}
	return o.deps.Tracer.StartOperation(ctx, operation)
}

func endSpan(span trace.Span, err error) {
	if span != nil {
		telemetry.EndOperation(span, err)
	}
}

// journalBegin is best-effort: history must never fail an operation.
func (o *Orchestrator) journalBegin(ctx context.Context, operation string) string {
	if o.deps.Journal == nil {
		return ""
	}
	id, err := o.deps.Journal.Begin(ctx, operation)
	if err != nil {
		log.Warn().Err(err).Str("operation", operation).Msg("Failed to record operation start")
		return ""
	}
	return id
}

func (o *Orchestrator) journalFinish(ctx context.Context, id string, success, restartRequired bool, detail string) {
	if o.deps.Journal == nil || id == "" {
		return
	}
	if err := o.deps.Journal.Finish(ctx, id, success, restartRequired, detail); err != nil {
		log.Warn().Err(err).Msg("Failed to record operation outcome")
	}
}

// stopServices stops the runtime and engine services defensively and
// waits for handles to settle. Absent services are not an error.
func (o *Orchestrator) stopServices(ctx context.Context) error {
	for _, name := range []string{o.deps.Layout.ServiceName, o.deps.Layout.EngineServiceName} {
		if err := o.deps.Services.Stop(ctx, name); err != nil {
			return NewCommandError("failed to stop service "+name, err)
		}
	}
	o.sleep(stopSettleDelay)
	return nil
}

// checkOsCompat verifies the host build supports the requested
// container mode.
func (o *Orchestrator) checkOsCompat(containerOs hostinfo.ContainerOs) error {
	build, err := o.deps.Inspector.OsBuild()
	if err != nil {
		return NewPreconditionError("could not determine OS build: " + err.Error())
	}
	if !hostinfo.CheckOsCompatibility(containerOs, build) {
		if containerOs == hostinfo.ContainerOsLinux {
			return NewPreconditionError(fmt.Sprintf(
				"OS build %d does not support Linux containers (requires build %d or later)",
				build, hostinfo.MinBuildForLinuxContainers))
		}
		return NewPreconditionError(fmt.Sprintf(
			"OS build %d does not support Windows containers (supported builds: %v)",
			build, hostinfo.SupportedBuildsForWindowsContainers))
	}
	return nil
}
