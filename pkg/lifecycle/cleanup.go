package lifecycle

import "fmt"

// CleanupStep records the outcome of one uninstall step.
type CleanupStep struct {
	Name string
	Err  error
}

// CleanupReport accumulates step outcomes across an uninstall run.
// Uninstall never aborts on a step failure; every failure lands here
// and the report decides the overall verdict at the end.
type CleanupReport struct {
	Steps []CleanupStep

	// RestartRequired means removal left the host pending a reboot.
	RestartRequired bool

	// RetryAdvised means some resources stayed behind and a reboot
	// followed by a second uninstall should release them.
	RetryAdvised bool
}

// Record notes a step outcome. A nil err marks the step successful.
func (r *CleanupReport) Record(name string, err error) {
	r.Steps = append(r.Steps, CleanupStep{Name: name, Err: err})
}

// Success reports whether every recorded step completed.
func (r *CleanupReport) Success() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return false
		}
	}
	return true
}

// Failures returns the failed steps.
func (r *CleanupReport) Failures() []CleanupStep {
	var out []CleanupStep
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Err folds the failures into a single classified error, or nil when
// everything succeeded.
func (r *CleanupReport) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d of %d cleanup steps failed", len(failures), len(r.Steps))
	if r.RetryAdvised {
		msg += "; reboot and run uninstall again to release held resources"
	}
	return &Error{Class: ClassCleanup, Message: msg, Err: failures[0].Err}
}
