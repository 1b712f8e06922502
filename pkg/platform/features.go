package platform

import (
	"context"

	"github.com/edgectl/edgectl/pkg/runner"
)

// FeatureManager enables optional OS features.
type FeatureManager interface {
	// EnableFeature turns a feature on and reports whether the OS
	// requires a reboot before it is usable.
	EnableFeature(ctx context.Context, name string) (rebootPending bool, err error)
}

// DismFeatureManager enables features through the component servicing
// tool.
type DismFeatureManager struct {
	runner *runner.Runner
}

// NewDismFeatureManager creates the feature manager.
func NewDismFeatureManager(r *runner.Runner) *DismFeatureManager {
	return &DismFeatureManager{runner: r}
}

func (m *DismFeatureManager) EnableFeature(ctx context.Context, name string) (bool, error) {
	res, err := m.runner.Run(ctx, runner.Command{
		Path:         "dism.exe",
		Args:         []string{"/Online", "/Enable-Feature", "/FeatureName:" + name, "/NoRestart"},
		SuccessCodes: []int{rebootPendingExitCode},
	})
	if err != nil {
		return false, err
	}
	return res.ExitCode == rebootPendingExitCode, nil
}
