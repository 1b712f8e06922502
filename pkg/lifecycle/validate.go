package lifecycle

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func (r InstallRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewValidationError("invalid install request", err)
	}
	return nil
}

func (r UpdateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewValidationError("invalid update request", err)
	}
	return nil
}

func (r UninstallRequest) Validate() error {
	return nil
}

// Validate checks the request shape before any host mutation. The
// provisioning variant must be internally consistent and the agent
// credential fields must form a complete set or be absent entirely.
func (r InitializeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewValidationError("invalid initialize request", err)
	}
	if err := r.Provisioning.validate(); err != nil {
		return err
	}
	return r.Agent.validate()
}

func (p ProvisioningSpec) validate() error {
	switch p.Mode {
	case ProvisioningManual:
		if p.ConnectionString == "" {
			return NewValidationError("manual provisioning requires a device connection string", nil)
		}
		if p.ScopeID != "" || p.RegistrationID != "" {
			return NewValidationError("manual provisioning does not take dps enrollment fields", nil)
		}
	case ProvisioningDPS:
		if p.ScopeID == "" || p.RegistrationID == "" {
			return NewValidationError("dps provisioning requires a scope id and a registration id", nil)
		}
		if p.ConnectionString != "" {
			return NewValidationError("dps provisioning does not take a connection string", nil)
		}
	case ProvisioningExisting:
		if p.ConnectionString != "" || p.ScopeID != "" || p.RegistrationID != "" {
			return NewValidationError("existing-config provisioning does not take identity fields", nil)
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown provisioning mode %q", p.Mode), nil)
	}
	return nil
}

func (c RegistryCredential) validate() error {
	if (c.Username == "") != (c.Password == "") {
		return NewValidationError("registry username and password must be given together", nil)
	}
	if c.HasCredentials() && c.Image == "" {
		return NewValidationError("registry credentials require an agent image", nil)
	}
	return nil
}

// effectiveEndpoint returns the dps endpoint with the default applied.
func (p ProvisioningSpec) effectiveEndpoint() string {
	if p.GlobalEndpoint != "" {
		return p.GlobalEndpoint
	}
	return DefaultDpsGlobalEndpoint
}
