package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgectl/edgectl/pkg/runner"
)

// rebootPendingExitCode is returned by the component servicing tool
// when the package was applied but needs a reboot to become active.
const rebootPendingExitCode = 3010

// FullOsPackageManager services packages with dism on full desktop and
// server editions.
type FullOsPackageManager struct {
	runner *runner.Runner
}

// NewFullOsPackageManager creates the full-edition package manager.
func NewFullOsPackageManager(r *runner.Runner) *FullOsPackageManager {
	return &FullOsPackageManager{runner: r}
}

func (m *FullOsPackageManager) Install(ctx context.Context, artifactPath string) (bool, error) {
	res, err := m.runner.Run(ctx, runner.Command{
		Path: "dism.exe",
		Args: []string{"/Online", "/Add-Package", "/PackagePath:" + artifactPath, "/NoRestart"},
		// Servicing is flaky right after boot or another install.
		Retry:        &runner.DefaultRetry,
		SuccessCodes: []int{rebootPendingExitCode},
	})
	if err != nil {
		return false, err
	}
	return res.ExitCode == rebootPendingExitCode, nil
}

func (m *FullOsPackageManager) Installed(ctx context.Context, name string) (bool, error) {
	res, err := m.runner.Run(ctx, runner.Command{
		Path:         "dism.exe",
		Args:         []string{"/Online", "/Get-Packages", "/Format:Table"},
		AllowFailure: true,
	})
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, &runner.CommandError{Command: "dism.exe /Get-Packages", ExitCode: res.ExitCode, Output: res.Output}
	}
	return strings.Contains(strings.ToLower(res.Output), strings.ToLower(name)), nil
}

func (m *FullOsPackageManager) Remove(ctx context.Context, name string) (bool, error) {
	res, err := m.runner.Run(ctx, runner.Command{
		Path:         "dism.exe",
		Args:         []string{"/Online", "/Remove-Package", "/PackageName:" + name, "/NoRestart"},
		Retry:        &runner.DefaultRetry,
		SuccessCodes: []int{rebootPendingExitCode},
	})
	if err != nil {
		return false, err
	}
	return res.ExitCode == rebootPendingExitCode, nil
}

// ConstrainedOsPackageManager stages packages through the update
// applier on constrained (IoT class) editions. Committing an update
// always implies a reboot.
type ConstrainedOsPackageManager struct {
	runner *runner.Runner
}

// NewConstrainedOsPackageManager creates the constrained-edition
// package manager.
func NewConstrainedOsPackageManager(r *runner.Runner) *ConstrainedOsPackageManager {
	return &ConstrainedOsPackageManager{runner: r}
}

func (m *ConstrainedOsPackageManager) Install(ctx context.Context, artifactPath string) (bool, error) {
	if _, err := m.runner.Run(ctx, runner.Command{
		Path:  "applyupdate.exe",
		Args:  []string{"-stage", artifactPath},
		Retry: &runner.DefaultRetry,
	}); err != nil {
		return false, fmt.Errorf("failed to stage package: %w", err)
	}
	if _, err := m.runner.Run(ctx, runner.Command{
		Path: "applyupdate.exe",
		Args: []string{"-commit"},
	}); err != nil {
		return false, fmt.Errorf("failed to commit package: %w", err)
	}
	// The update applier reboots the device to finish the commit.
	return true, nil
}

func (m *ConstrainedOsPackageManager) Installed(ctx context.Context, name string) (bool, error) {
	res, err := m.runner.Run(ctx, runner.Command{
		Path:         "applyupdate.exe",
		Args:         []string{"-getinstalledpackages"},
		AllowFailure: true,
	})
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, &runner.CommandError{Command: "applyupdate.exe -getinstalledpackages", ExitCode: res.ExitCode, Output: res.Output}
	}
	return strings.Contains(strings.ToLower(res.Output), strings.ToLower(name)), nil
}

func (m *ConstrainedOsPackageManager) Remove(ctx context.Context, name string) (bool, error) {
	if _, err := m.runner.Run(ctx, runner.Command{
		Path:  "applyupdate.exe",
		Args:  []string{"-remove", name},
		Retry: &runner.DefaultRetry,
	}); err != nil {
		return false, fmt.Errorf("failed to remove package: %w", err)
	}
	return true, nil
}
