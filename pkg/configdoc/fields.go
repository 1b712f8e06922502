package configdoc

import "strings"

// quote renders a value as a double-quoted YAML scalar. Backslashes
// are doubled so Windows paths round-trip.
func quote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}

// SetManualProvisioning selects manual provisioning with a device
// connection string.
func (d *Document) SetManualProvisioning(connectionString string) error {
	return d.Patch(FieldProvisioning,
		`provisioning:`,
		`  source: "manual"`,
		`  device_connection_string: `+quote(connectionString),
	)
}

// SetDpsProvisioning selects provisioning through the device
// provisioning service.
func (d *Document) SetDpsProvisioning(globalEndpoint, scopeID, registrationID string) error {
	return d.Patch(FieldProvisioning,
		`provisioning:`,
		`  source: "dps"`,
		`  global_endpoint: `+quote(globalEndpoint),
		`  scope_id: `+quote(scopeID),
		`  registration_id: `+quote(registrationID),
	)
}

// SetAgentImage sets the agent container image.
func (d *Document) SetAgentImage(image string) error {
	return d.Patch(FieldAgentImage, `    image: `+quote(image))
}

// SetAgentAuth sets the registry credentials used to pull the agent
// image.
func (d *Document) SetAgentAuth(serverAddress, username, password string) error {
	return d.Patch(FieldAgentAuth,
		`    auth:`,
		`      serveraddress: `+quote(serverAddress),
		`      username: `+quote(username),
		`      password: `+quote(password),
	)
}

// SetHostname sets the edge device hostname.
func (d *Document) SetHostname(hostname string) error {
	return d.Patch(FieldHostname, `hostname: `+quote(hostname))
}

// SetConnectEndpoints sets the endpoints modules use to reach the
// runtime.
func (d *Document) SetConnectEndpoints(managementURI, workloadURI string) error {
	return d.Patch(FieldConnectEndpoints,
		`connect:`,
		`  management_uri: `+quote(managementURI),
		`  workload_uri: `+quote(workloadURI),
	)
}

// SetListenEndpoints sets the endpoints the runtime listens on.
func (d *Document) SetListenEndpoints(managementURI, workloadURI string) error {
	return d.Patch(FieldListenEndpoints,
		`listen:`,
		`  management_uri: `+quote(managementURI),
		`  workload_uri: `+quote(workloadURI),
	)
}

// SetHomedir sets the runtime home directory.
func (d *Document) SetHomedir(path string) error {
	return d.Patch(FieldHomedir, `homedir: `+quote(path))
}

// SetEngineEndpoint sets the container engine endpoint.
func (d *Document) SetEngineEndpoint(uri string) error {
	return d.Patch(FieldEngineEndpoint, `  uri: `+quote(uri))
}

// SetEngineNetwork sets the default module network the engine creates.
func (d *Document) SetEngineNetwork(network string) error {
	return d.Patch(FieldEngineNetwork, `  network: `+quote(network))
}
