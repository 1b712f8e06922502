// Package platform defines the host capabilities the lifecycle
// operations consume: package manager, service manager, firewall rule
// store, container engine CLI, download transport and the persisted
// search path. Capabilities are interfaces so the constrained-OS and
// full-OS toolchains can be selected once at startup instead of
// branching at every call site.
package platform

import (
	"context"

	"github.com/edgectl/edgectl/pkg/runner"
)

// PackageManager installs and removes the runtime package.
type PackageManager interface {
	// Install applies a package artifact and reports whether the OS
	// requires a reboot before the package is active.
	Install(ctx context.Context, artifactPath string) (rebootPending bool, err error)

	// Installed reports whether a package record exists for name.
	Installed(ctx context.Context, name string) (bool, error)

	// Remove uninstalls the named package.
	Remove(ctx context.Context, name string) (rebootPending bool, err error)
}

// ServiceManager manages named host services.
type ServiceManager interface {
	Registered(ctx context.Context, name string) (bool, error)
	Running(ctx context.Context, name string) (bool, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

// FirewallRule is one named inbound exception.
type FirewallRule struct {
	Name      string
	Program   string
	PortRange string
}

// Firewall manages inbound firewall exceptions.
type Firewall interface {
	AddRule(ctx context.Context, rule FirewallRule) error
	RemoveRule(ctx context.Context, name string) error
}

// Container is the subset of container state the uninstall path needs.
type Container struct {
	ID     string
	Name   string
	Labels map[string]string
}

// ContainerEngine addresses the engine CLI through the endpoint
// selected by container mode.
type ContainerEngine interface {
	List(ctx context.Context) ([]Container, error)
	Stop(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

// Downloader fetches a URL to a local file, honoring an optional proxy.
type Downloader interface {
	Fetch(ctx context.Context, url, dest, proxy string) error
}

// EnvPath manipulates the process-visible and persisted search path
// and host-scoped environment variables.
type EnvPath interface {
	AddDirs(ctx context.Context, dirs ...string) error
	RemoveDirs(ctx context.Context, dirs ...string) error
	SetHostEnv(ctx context.Context, name, value string) error
	RemoveHostEnv(ctx context.Context, name string) error
}

// Select picks the package and service toolchain for the host edition.
// Constrained (IoT class) editions stage packages through the update
// applier; full editions use the component servicing tool.
func Select(constrained bool, r *runner.Runner) (PackageManager, ServiceManager) {
	if constrained {
		return &ConstrainedOsPackageManager{runner: r}, &ScServiceManager{runner: r}
	}
	return &FullOsPackageManager{runner: r}, &ScServiceManager{runner: r}
}
