// Package lifecycle sequences the install, update, initialize and
// uninstall transitions for the edge runtime. Every operation receives
// an explicit request object and re-derives host state through the
// inspector; nothing is shared between invocations.
package lifecycle

import (
	"github.com/edgectl/edgectl/pkg/hostinfo"
)

// ProvisioningMode selects how the runtime obtains its device
// identity.
type ProvisioningMode string

const (
	// ProvisioningManual uses an operator-supplied connection string.
	ProvisioningManual ProvisioningMode = "manual"

	// ProvisioningDPS enrolls through the device provisioning service.
	ProvisioningDPS ProvisioningMode = "dps"

	// ProvisioningExisting reuses a config document already on disk.
	ProvisioningExisting ProvisioningMode = "existing"
)

// DefaultDpsGlobalEndpoint is the provisioning service endpoint used
// unless the request overrides it.
const DefaultDpsGlobalEndpoint = "https://global.azure-devices-provisioning.net"

// ProvisioningSpec is the tagged provisioning variant. Exactly one
// mode is active per Initialize call; mode-specific fields are
// validated before any filesystem mutation.
type ProvisioningSpec struct {
	Mode ProvisioningMode `validate:"required,oneof=manual dps existing"`

	// ConnectionString is required for manual mode.
	ConnectionString string

	// GlobalEndpoint, ScopeID and RegistrationID configure dps mode.
	// GlobalEndpoint defaults to DefaultDpsGlobalEndpoint.
	GlobalEndpoint string
	ScopeID        string
	RegistrationID string
}

// RegistryCredential carries the agent image and optional registry
// credentials for pulling it. Username and password come together or
// not at all; an image is required whenever credentials are given.
type RegistryCredential struct {
	Image    string
	Registry string
	Username string
	Password string
}

// HasCredentials reports whether a username/password pair was given.
func (c RegistryCredential) HasCredentials() bool {
	return c.Username != "" || c.Password != ""
}

// InstallRequest parameterizes the Absent -> Installed transition.
type InstallRequest struct {
	ContainerOs hostinfo.ContainerOs `validate:"required,oneof=linux windows"`

	// Proxy is an optional proxy URL for downloads.
	Proxy string

	// OfflineInstallationPath points at a directory of pre-fetched
	// artifacts. When set, matching artifacts win over downloads.
	OfflineInstallationPath string

	// RestartIfNeeded acknowledges that the operation may leave the
	// host pending a reboot.
	RestartIfNeeded bool
}

// UpdateRequest parameterizes an in-place runtime update.
type UpdateRequest struct {
	ContainerOs hostinfo.ContainerOs `validate:"required,oneof=linux windows"`

	Proxy                   string
	OfflineInstallationPath string
	RestartIfNeeded         bool
}

// InitializeRequest parameterizes the Installed -> Ready transition.
type InitializeRequest struct {
	ContainerOs hostinfo.ContainerOs `validate:"required,oneof=linux windows"`

	Provisioning ProvisioningSpec

	// Agent configures the agent image and optional pull credentials.
	Agent RegistryCredential

	// Hostname overrides the edge device hostname. Defaults to the
	// host's own name.
	Hostname string
}

// UninstallRequest parameterizes removal.
type UninstallRequest struct {
	// Force allows uninstall to proceed on a host where nothing is
	// installed, and to continue past individual failures.
	Force bool

	// DeleteConfig removes the persisted config document, which is
	// otherwise preserved for a later reinstall.
	DeleteConfig bool

	// DeleteData removes all container data, including containers not
	// owned by the runtime.
	DeleteData bool
}

// RestartRequirement accumulates across an operation: once any step
// requires a host reboot, the requirement holds for the remainder of
// the operation and is never reset.
type RestartRequirement struct {
	required bool
}

// Set records that a reboot is required.
func (r *RestartRequirement) Set() {
	r.required = true
}

// Required reports whether any step required a reboot.
func (r *RestartRequirement) Required() bool {
	return r.required
}

// Result is the outcome of an Install, Update or Initialize.
type Result struct {
	Success bool

	// RestartRequired means the transition is suspended: the operator
	// must reboot and re-invoke the operation to complete it.
	RestartRequired bool

	Message string
}
