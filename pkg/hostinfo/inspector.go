package hostinfo

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServiceQuerier reports whether a named service is registered with the
// service manager.
type ServiceQuerier interface {
	Registered(ctx context.Context, name string) (bool, error)
}

// PackageQuerier reports whether a named package has a record in the
// package registry.
type PackageQuerier interface {
	Installed(ctx context.Context, name string) (bool, error)
}

// HostState is the derived installation state of the host. It is
// recomputed on every call and never persisted.
type HostState struct {
	RuntimeInstalled bool
	EngineInstalled  bool
	Layout           Generation
	OsBuild          int
	IsConstrainedOs  bool
}

// Inspector determines installation presence, layout generation and
// component readiness by querying the service manager, the package
// registry and the filesystem.
type Inspector struct {
	layout   Layout
	services ServiceQuerier
	packages PackageQuerier

	// stat, osBuild and constrained are indirected for tests.
	stat        func(string) (os.FileInfo, error)
	osBuild     func() (int, error)
	constrained func() bool
}

// Option adjusts how an Inspector reads host facts.
type Option func(*Inspector)

// WithOsBuild overrides how the OS build number is read.
func WithOsBuild(fn func() (int, error)) Option {
	return func(i *Inspector) { i.osBuild = fn }
}

// WithConstrainedOs overrides constrained-edition detection.
func WithConstrainedOs(constrained bool) Option {
	return func(i *Inspector) { i.constrained = func() bool { return constrained } }
}

// New creates an Inspector over the given layout and collaborators.
func New(layout Layout, services ServiceQuerier, packages PackageQuerier, opts ...Option) *Inspector {
	i := &Inspector{
		layout:      layout,
		services:    services,
		packages:    packages,
		stat:        os.Stat,
		osBuild:     currentOsBuild,
		constrained: isConstrainedOs,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Layout returns the layout the inspector was built with.
func (i *Inspector) Layout() Layout {
	return i.layout
}

func (i *Inspector) pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := i.stat(path)
	return err == nil
}

// IsRuntimeInstalled reports whether the runtime is present: its
// lifecycle service is registered, or its binary exists at the current
// or legacy install path.
func (i *Inspector) IsRuntimeInstalled(ctx context.Context) (bool, error) {
	registered, err := i.services.Registered(ctx, i.layout.ServiceName)
	if err != nil {
		return false, err
	}
	if registered {
		return true, nil
	}
	if i.pathExists(filepath.Join(i.layout.InstallDir, "iotedged.exe")) {
		return true, nil
	}
	return i.pathExists(filepath.Join(i.layout.LegacyInstallDir, "iotedged.exe")), nil
}

// IsEngineInstalled reports whether the container engine is present:
// its service is registered or its install directory exists.
func (i *Inspector) IsEngineInstalled(ctx context.Context) (bool, error) {
	registered, err := i.services.Registered(ctx, i.layout.EngineServiceName)
	if err != nil {
		return false, err
	}
	if registered {
		return true, nil
	}
	return i.pathExists(i.layout.EngineInstallDir), nil
}

// DetectLayout determines which installation generation is active.
// Legacy detection takes precedence: any legacy indicator forces the
// legacy result even when current indicators are also present, because
// legacy artifacts must be cleaned up before current-layout operations
// can be trusted.
func (i *Inspector) DetectLayout(ctx context.Context) (Generation, error) {
	installed, err := i.IsRuntimeInstalled(ctx)
	if err != nil {
		return LayoutNone, err
	}
	if !installed {
		return LayoutNone, nil
	}

	for _, dir := range i.layout.LegacyEngineDataDirs {
		if i.pathExists(dir) {
			return LayoutLegacy, nil
		}
	}

	packaged, err := i.packages.Installed(ctx, i.layout.PackageName)
	if err != nil {
		return LayoutNone, err
	}
	if !packaged {
		// Files exist but the package registry has no record: a
		// pre-package installer put them there.
		return LayoutLegacy, nil
	}
	return LayoutCurrent, nil
}

// NeedsRelocation reports whether a legacy install sits at the fixed
// pre-package path while the effective legacy path points elsewhere.
// That state requires moving the install, not just renaming it.
func (i *Inspector) NeedsRelocation() bool {
	if i.layout.LegacyDefaultInstallDir == i.layout.LegacyInstallDir {
		return false
	}
	return i.pathExists(i.layout.LegacyDefaultInstallDir)
}

// configEngine is the subset of the config document the inspector reads.
type configEngine struct {
	MobyRuntime struct {
		URI string `yaml:"uri"`
	} `yaml:"moby_runtime"`
}

// ReadContainerOsFromConfig infers the container mode from the engine
// endpoint in the persisted config document. It is best-effort: a
// missing file, unparseable document or absent field yields Windows.
func (i *Inspector) ReadContainerOsFromConfig() ContainerOs {
	data, err := os.ReadFile(i.layout.ConfigPath)
	if err != nil {
		data, err = os.ReadFile(i.layout.LegacyConfigPath)
		if err != nil {
			return ContainerOsWindows
		}
	}

	var cfg configEngine
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ContainerOsWindows
	}
	if cfg.MobyRuntime.URI == i.layout.EngineEndpointLinux {
		return ContainerOsLinux
	}
	return ContainerOsWindows
}

// State derives the full host state in one pass.
func (i *Inspector) State(ctx context.Context) (HostState, error) {
	runtime, err := i.IsRuntimeInstalled(ctx)
	if err != nil {
		return HostState{}, err
	}
	engine, err := i.IsEngineInstalled(ctx)
	if err != nil {
		return HostState{}, err
	}
	layout, err := i.DetectLayout(ctx)
	if err != nil {
		return HostState{}, err
	}
	build, err := i.OsBuild()
	if err != nil {
		return HostState{}, err
	}
	return HostState{
		RuntimeInstalled: runtime,
		EngineInstalled:  engine,
		Layout:           layout,
		OsBuild:          build,
		IsConstrainedOs:  i.constrained(),
	}, nil
}

// OsBuild returns the host OS build number.
func (i *Inspector) OsBuild() (int, error) {
	return i.osBuild()
}
