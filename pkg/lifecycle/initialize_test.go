package lifecycle

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/edgectl/edgectl/pkg/hostinfo"
)

func manualRequest() InitializeRequest {
	return InitializeRequest{
		ContainerOs: hostinfo.ContainerOsWindows,
		Provisioning: ProvisioningSpec{
			Mode:             ProvisioningManual,
			ConnectionString: "HostName=hub.azure-devices.net;DeviceId=dev1;SharedAccessKey=abc=",
		},
		Hostname: "device-1",
	}
}

func TestInitializeManual(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	ctx := context.Background()

	res, err := f.orch.Initialize(ctx, manualRequest())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !res.Success {
		t.Errorf("unexpected result: %+v", res)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatalf("config document should be written: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`source: "manual"`,
		`device_connection_string: "HostName=hub.azure-devices.net;DeviceId=dev1;SharedAccessKey=abc="`,
		`hostname: "device-1"`,
		`management_uri: "npipe://./pipe/iotedge_mgmt"`,
		`workload_uri: "npipe://./pipe/iotedge_workload"`,
		`uri: "npipe://./pipe/iotedge_moby_engine"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("config document missing %q", want)
		}
	}
	if !strings.Contains(text, `homedir: "`+strings.ReplaceAll(f.layout.DataDir, `\`, `\\`)+`"`) {
		t.Error("config document should set the home directory")
	}

	if got := f.env.hostEnv[runtimeHostEnv]; got != f.layout.ManagementURI {
		t.Errorf("management endpoint not published, got %q", got)
	}
	if len(f.services.started) != 1 || f.services.started[0] != f.layout.ServiceName {
		t.Errorf("the runtime service should start, got %v", f.services.started)
	}
	if len(f.firewall.added) != 0 {
		t.Errorf("windows container mode needs no firewall exception, got %v", f.firewall.added)
	}
}

func TestInitializeDps(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	req := InitializeRequest{
		ContainerOs: hostinfo.ContainerOsWindows,
		Provisioning: ProvisioningSpec{
			Mode:           ProvisioningDPS,
			ScopeID:        "0ne000EDGE",
			RegistrationID: "device-1",
		},
		Hostname: "device-1",
	}
	if _, err := f.orch.Initialize(context.Background(), req); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`source: "dps"`,
		`global_endpoint: "` + DefaultDpsGlobalEndpoint + `"`,
		`scope_id: "0ne000EDGE"`,
		`registration_id: "device-1"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("config document missing %q", want)
		}
	}
	if strings.Contains(text, `source: "manual"`) {
		t.Error("manual provisioning should not remain active")
	}
}

func TestInitializeLinuxMode(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	req := manualRequest()
	req.ContainerOs = hostinfo.ContainerOsLinux
	if _, err := f.orch.Initialize(context.Background(), req); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `uri: "npipe://./pipe/docker_engine"`) {
		t.Error("linux mode should select the linux engine endpoint")
	}
	if !strings.Contains(text, `network: "azure-iot-edge"`) {
		t.Error("linux mode should set the module network")
	}
	if len(f.firewall.added) != 1 || f.firewall.added[0].Name != firewallRuleName {
		t.Errorf("linux mode should add the firewall exception, got %v", f.firewall.added)
	}
}

func TestInitializeAgentImageAndCredentials(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	req := manualRequest()
	req.Agent = RegistryCredential{
		Image:    "myregistry.azurecr.io/azureiotedge-agent:1.0",
		Registry: "myregistry.azurecr.io",
		Username: "puller",
		Password: "s3cret",
	}
	if _, err := f.orch.Initialize(context.Background(), req); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`image: "myregistry.azurecr.io/azureiotedge-agent:1.0"`,
		`serveraddress: "myregistry.azurecr.io"`,
		`username: "puller"`,
		`password: "s3cret"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("config document missing %q", want)
		}
	}
}

func TestInitializeDefaultsHostname(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	req := manualRequest()
	req.Hostname = ""
	if _, err := f.orch.Initialize(context.Background(), req); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `hostname: "`+hostname+`"`) {
		t.Error("hostname should default to the host's own name")
	}
}

func TestInitializeRequiresInstall(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Initialize(context.Background(), manualRequest())
	if !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
	if _, statErr := os.Stat(f.layout.ConfigPath); !os.IsNotExist(statErr) {
		t.Error("no config document should be written")
	}
}

func TestInitializeNeverOverwritesConfig(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.writeConfigFile(t, "hostname: \"already-provisioned\"\n")

	_, err := f.orch.Initialize(context.Background(), manualRequest())
	if !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}

	data, readErr := os.ReadFile(f.layout.ConfigPath)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "hostname: \"already-provisioned\"\n" {
		t.Errorf("existing config document must not change, got %q", data)
	}
	if len(f.services.started) != 0 {
		t.Error("the service must not start after a refused initialize")
	}
}

func TestInitializeExistingConfig(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()
	f.writeConfigFile(t, "hostname: \"already-provisioned\"\n")

	req := InitializeRequest{
		ContainerOs:  hostinfo.ContainerOsWindows,
		Provisioning: ProvisioningSpec{Mode: ProvisioningExisting},
	}
	res, err := f.orch.Initialize(context.Background(), req)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !res.Success {
		t.Errorf("unexpected result: %+v", res)
	}

	data, err := os.ReadFile(f.layout.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hostname: \"already-provisioned\"\n" {
		t.Errorf("reused config document must not change, got %q", data)
	}
	if len(f.services.started) != 1 {
		t.Errorf("the service should start, got %v", f.services.started)
	}
}

func TestInitializeExistingConfigRequiresFile(t *testing.T) {
	f := newFixture(t)
	f.markInstalled()

	req := InitializeRequest{
		ContainerOs:  hostinfo.ContainerOsWindows,
		Provisioning: ProvisioningSpec{Mode: ProvisioningExisting},
	}
	_, err := f.orch.Initialize(context.Background(), req)
	if !IsPrecondition(err) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InitializeRequest)
	}{
		{"manual without connection string", func(r *InitializeRequest) {
			r.Provisioning.ConnectionString = ""
		}},
		{"manual with dps fields", func(r *InitializeRequest) {
			r.Provisioning.ScopeID = "0ne000EDGE"
		}},
		{"dps without registration id", func(r *InitializeRequest) {
			r.Provisioning = ProvisioningSpec{Mode: ProvisioningDPS, ScopeID: "0ne000EDGE"}
		}},
		{"dps with connection string", func(r *InitializeRequest) {
			r.Provisioning = ProvisioningSpec{
				Mode:             ProvisioningDPS,
				ScopeID:          "0ne000EDGE",
				RegistrationID:   "device-1",
				ConnectionString: "HostName=h;DeviceId=d;SharedAccessKey=k",
			}
		}},
		{"existing with identity fields", func(r *InitializeRequest) {
			r.Provisioning = ProvisioningSpec{Mode: ProvisioningExisting, RegistrationID: "device-1"}
		}},
		{"unknown provisioning mode", func(r *InitializeRequest) {
			r.Provisioning.Mode = "magic"
		}},
		{"username without password", func(r *InitializeRequest) {
			r.Agent = RegistryCredential{Image: "agent:1.0", Username: "puller"}
		}},
		{"password without username", func(r *InitializeRequest) {
			r.Agent = RegistryCredential{Image: "agent:1.0", Password: "s3cret"}
		}},
		{"credentials without image", func(r *InitializeRequest) {
			r.Agent = RegistryCredential{Username: "puller", Password: "s3cret"}
		}},
		{"missing container os", func(r *InitializeRequest) {
			r.ContainerOs = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.markInstalled()

			req := manualRequest()
			tt.mutate(&req)
			_, err := f.orch.Initialize(context.Background(), req)
			if !IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if _, statErr := os.Stat(f.layout.ConfigPath); !os.IsNotExist(statErr) {
				t.Error("a rejected request must not write a config document")
			}
		})
	}
}
