package platform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/edgectl/edgectl/pkg/runner"
)

// machinePathKey is the registry location of the persisted search path.
const machinePathKey = `HKLM\SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// MachineEnvPath edits the machine-scoped search path and environment
// variables, and mirrors path changes into the current process so the
// remainder of the operation sees them.
type MachineEnvPath struct {
	runner *runner.Runner
}

// NewMachineEnvPath creates the search-path editor.
func NewMachineEnvPath(r *runner.Runner) *MachineEnvPath {
	return &MachineEnvPath{runner: r}
}

// appendDirs adds missing dirs to a semicolon-separated path list.
func appendDirs(path string, dirs ...string) string {
	entries := splitPath(path)
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[strings.ToLower(e)] = true
	}
	for _, dir := range dirs {
		if !present[strings.ToLower(dir)] {
			entries = append(entries, dir)
		}
	}
	return strings.Join(entries, ";")
}

// stripDirs removes dirs from a semicolon-separated path list.
func stripDirs(path string, dirs ...string) string {
	drop := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		drop[strings.ToLower(dir)] = true
	}
	var kept []string
	for _, e := range splitPath(path) {
		if !drop[strings.ToLower(e)] {
			kept = append(kept, e)
		}
	}
	return strings.Join(kept, ";")
}

func splitPath(path string) []string {
	var entries []string
	for _, e := range strings.Split(path, ";") {
		if e != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func (p *MachineEnvPath) readMachinePath(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, runner.Command{
		Path: "reg.exe",
		Args: []string{"query", machinePathKey, "/v", "Path"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to read machine path: %w", err)
	}
	for _, line := range strings.Split(res.Output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == "Path" {
			return strings.Join(fields[2:], " "), nil
		}
	}
	return "", fmt.Errorf("machine path value not found")
}

func (p *MachineEnvPath) writeMachinePath(ctx context.Context, path string) error {
	if _, err := p.runner.Run(ctx, runner.Command{
		Path: "reg.exe",
		Args: []string{"add", machinePathKey, "/v", "Path", "/t", "REG_EXPAND_SZ", "/d", path, "/f"},
	}); err != nil {
		return fmt.Errorf("failed to write machine path: %w", err)
	}
	return nil
}

func (p *MachineEnvPath) AddDirs(ctx context.Context, dirs ...string) error {
	current, err := p.readMachinePath(ctx)
	if err != nil {
		return err
	}
	if err := p.writeMachinePath(ctx, appendDirs(current, dirs...)); err != nil {
		return err
	}
	return os.Setenv("PATH", appendDirs(os.Getenv("PATH"), dirs...))
}

func (p *MachineEnvPath) RemoveDirs(ctx context.Context, dirs ...string) error {
	current, err := p.readMachinePath(ctx)
	if err != nil {
		return err
	}
	if err := p.writeMachinePath(ctx, stripDirs(current, dirs...)); err != nil {
		return err
	}
	return os.Setenv("PATH", stripDirs(os.Getenv("PATH"), dirs...))
}

func (p *MachineEnvPath) SetHostEnv(ctx context.Context, name, value string) error {
	if _, err := p.runner.Run(ctx, runner.Command{
		Path: "setx.exe",
		Args: []string{"/M", name, value},
	}); err != nil {
		return fmt.Errorf("failed to set host environment variable %s: %w", name, err)
	}
	return os.Setenv(name, value)
}

func (p *MachineEnvPath) RemoveHostEnv(ctx context.Context, name string) error {
	if _, err := p.runner.Run(ctx, runner.Command{
		Path:         "reg.exe",
		Args:         []string{"delete", machinePathKey, "/v", name, "/f"},
		AllowFailure: true,
	}); err != nil {
		return fmt.Errorf("failed to remove host environment variable %s: %w", name, err)
	}
	return os.Unsetenv(name)
}
