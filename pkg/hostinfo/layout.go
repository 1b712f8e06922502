// Package hostinfo inspects the host to determine the installation
// state of the edge runtime and container engine. All inspection is a
// read-projection over the OS; nothing here is cached or persisted.
package hostinfo

// Generation identifies which installation layout is present on the
// host. Successive installer versions produced two non-overlapping
// sets of filesystem paths and service names.
type Generation string

const (
	// LayoutNone means no generation is active.
	LayoutNone Generation = "none"

	// LayoutCurrent is the package-based layout.
	LayoutCurrent Generation = "current"

	// LayoutLegacy is the pre-package layout. Legacy artifacts must be
	// removed before current-layout operations can be trusted.
	LayoutLegacy Generation = "legacy"
)

// ContainerOs selects which container mode the engine runs in.
type ContainerOs string

const (
	ContainerOsLinux   ContainerOs = "linux"
	ContainerOsWindows ContainerOs = "windows"
)

// Layout is the fixed set of filesystem paths and service names for
// both installation generations. Tests point it at scratch directories.
type Layout struct {
	// InstallDir holds the runtime binaries in the current layout.
	InstallDir string

	// DataDir holds runtime state and the config document.
	DataDir string

	// ConfigPath is the persisted configuration document.
	ConfigPath string

	// ServiceName is the runtime lifecycle service.
	ServiceName string

	// PackageName is the runtime's record in the package registry.
	PackageName string

	// EventLogName is the provider name under which the runtime logs.
	EventLogName string

	// EngineInstallDir holds the container engine in the current layout.
	EngineInstallDir string

	// EngineDataDir is the engine's data root.
	EngineDataDir string

	// EngineServiceName is the container engine service.
	EngineServiceName string

	// LegacyInstallDir is where pre-package installers placed the
	// runtime. May be overridden by the host environment; see
	// LegacyDefaultInstallDir.
	LegacyInstallDir string

	// LegacyDefaultInstallDir is the fixed pre-package install path.
	// When it exists but differs from LegacyInstallDir, the install
	// must be relocated, not just renamed.
	LegacyDefaultInstallDir string

	// LegacyConfigPath is the config document location in the legacy
	// layout.
	LegacyConfigPath string

	// LegacyEngineDataDirs are data roots created only by legacy
	// installers. Presence of any of them signals the legacy layout.
	LegacyEngineDataDirs []string

	// ManagementURI and WorkloadURI are the runtime's named
	// communication endpoints in the Windows container mode.
	ManagementURI string
	WorkloadURI   string

	// EngineEndpointWindows and EngineEndpointLinux are the engine
	// endpoints selected by container mode.
	EngineEndpointWindows string
	EngineEndpointLinux   string

	// EngineNetwork is the default network the engine creates.
	EngineNetwork string
}

// DefaultLayout returns the well-known production paths and names.
func DefaultLayout() Layout {
	return Layout{
		InstallDir:        `C:\Program Files\iotedge`,
		DataDir:           `C:\ProgramData\iotedge`,
		ConfigPath:        `C:\ProgramData\iotedge\config.yaml`,
		ServiceName:       "iotedge",
		PackageName:       "iotedge",
		EventLogName:      "iotedged",
		EngineInstallDir:  `C:\Program Files\iotedge-moby`,
		EngineDataDir:     `C:\ProgramData\iotedge-moby`,
		EngineServiceName: "iotedge-moby",

		LegacyInstallDir:        `C:\ProgramData\iotedge`,
		LegacyDefaultInstallDir: `C:\ProgramData\iotedge`,
		LegacyConfigPath:        `C:\ProgramData\iotedge\config.yaml`,
		LegacyEngineDataDirs: []string{
			`C:\ProgramData\iotedge-moby-data`,
		},

		ManagementURI: `npipe://./pipe/iotedge_mgmt`,
		WorkloadURI:   `npipe://./pipe/iotedge_workload`,

		EngineEndpointWindows: `npipe://./pipe/iotedge_moby_engine`,
		EngineEndpointLinux:   `npipe://./pipe/docker_engine`,
		EngineNetwork:         "azure-iot-edge",
	}
}

// EngineEndpoint returns the engine endpoint for the container mode.
func (l Layout) EngineEndpoint(os ContainerOs) string {
	if os == ContainerOsLinux {
		return l.EngineEndpointLinux
	}
	return l.EngineEndpointWindows
}
