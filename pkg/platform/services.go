package platform

import (
	"context"
	"strings"

	"github.com/edgectl/edgectl/pkg/runner"
)

// serviceNotFoundExitCode is returned by the service control tool when
// the named service does not exist.
const serviceNotFoundExitCode = 1060

// ScServiceManager manages services through the service control tool.
// Both OS editions use the same tool.
type ScServiceManager struct {
	runner *runner.Runner
}

// NewScServiceManager creates the service manager.
func NewScServiceManager(r *runner.Runner) *ScServiceManager {
	return &ScServiceManager{runner: r}
}

func (m *ScServiceManager) query(ctx context.Context, name string) (runner.Result, error) {
	return m.runner.Run(ctx, runner.Command{
		Path:         "sc.exe",
		Args:         []string{"query", name},
		AllowFailure: true,
	})
}

func (m *ScServiceManager) Registered(ctx context.Context, name string) (bool, error) {
	res, err := m.query(ctx, name)
	if err != nil {
		return false, err
	}
	return res.ExitCode != serviceNotFoundExitCode, nil
}

func (m *ScServiceManager) Running(ctx context.Context, name string) (bool, error) {
	res, err := m.query(ctx, name)
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, nil
	}
	return strings.Contains(res.Output, "RUNNING"), nil
}

func (m *ScServiceManager) Start(ctx context.Context, name string) error {
	_, err := m.runner.Run(ctx, runner.Command{
		Path:  "sc.exe",
		Args:  []string{"start", name},
		Retry: &runner.DefaultRetry,
	})
	return err
}

// Stop requests a stop and tolerates a service that is not running or
// not installed.
func (m *ScServiceManager) Stop(ctx context.Context, name string) error {
	_, err := m.runner.Run(ctx, runner.Command{
		Path:         "sc.exe",
		Args:         []string{"stop", name},
		AllowFailure: true,
	})
	return err
}

func (m *ScServiceManager) Disable(ctx context.Context, name string) error {
	_, err := m.runner.Run(ctx, runner.Command{
		Path:         "sc.exe",
		Args:         []string{"config", name, "start=", "disabled"},
		AllowFailure: true,
	})
	return err
}

func (m *ScServiceManager) Remove(ctx context.Context, name string) error {
	res, err := m.runner.Run(ctx, runner.Command{
		Path:         "sc.exe",
		Args:         []string{"delete", name},
		AllowFailure: true,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 && res.ExitCode != serviceNotFoundExitCode {
		return &runner.CommandError{Command: "sc.exe delete " + name, ExitCode: res.ExitCode, Output: res.Output}
	}
	return nil
}
