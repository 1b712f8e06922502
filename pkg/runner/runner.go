// Package runner executes native host commands for the lifecycle
// operations. It is the single place that implements retry with
// exponential backoff; callers request it per command instead of
// looping at the call site.
package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRetry is the retry policy used by lifecycle operations that
// ask for backoff: five attempts, delay doubling from one second.
var DefaultRetry = RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}

// RetryPolicy controls repeated invocation of a single native command.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt. It doubles
	// after every failed attempt.
	BaseDelay time.Duration
}

// Command describes one native command invocation.
type Command struct {
	// Path is the program to run.
	Path string

	// Args are the program arguments.
	Args []string

	// AllowFailure suppresses the non-zero-exit error; the caller
	// inspects Result.ExitCode instead.
	AllowFailure bool

	// SuccessCodes are exit codes treated as terminal success besides
	// zero. They stop retries and raise no error. The servicing tools
	// use a distinct code for "applied, reboot pending".
	SuccessCodes []int

	// Retry, when non-nil, re-runs the command with exponential
	// backoff until it exits zero or attempts are exhausted.
	Retry *RetryPolicy
}

// Result holds the captured outcome of the last attempt.
type Result struct {
	// Output is the combined stdout and stderr of the command.
	Output string

	// ExitCode is the command's exit code.
	ExitCode int
}

// CommandError reports a native command that exited non-zero after any
// configured retries were exhausted.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed with exit code %d: %s",
		e.Command, e.ExitCode, strings.TrimSpace(e.Output))
}

// Runner runs native commands. The zero value is not usable; call New.
type Runner struct {
	// execute performs a single attempt. Swapped out by tests.
	execute func(ctx context.Context, path string, args ...string) (string, int, error)

	// sleep waits between attempts. Swapped out by tests.
	sleep func(time.Duration)
}

// New creates a Runner that executes commands on the host.
func New() *Runner {
	return &Runner{
		execute: executeNative,
		sleep:   time.Sleep,
	}
}

// Run executes cmd. With a retry policy, the command is re-run until it
// exits zero or attempts are exhausted; the returned Result always
// reflects the final attempt. A non-zero final exit code is returned as
// a *CommandError unless cmd.AllowFailure is set.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	attempts := 1
	delay := time.Duration(0)
	if cmd.Retry != nil {
		attempts = cmd.Retry.MaxAttempts
		delay = cmd.Retry.BaseDelay
	}

	var res Result
	for attempt := 1; ; attempt++ {
		output, exitCode, err := r.execute(ctx, cmd.Path, cmd.Args...)
		if err != nil {
			return Result{}, fmt.Errorf("failed to run %q: %w", cmd.Path, err)
		}
		res = Result{Output: output, ExitCode: exitCode}
		if cmd.succeeded(exitCode) || attempt >= attempts {
			break
		}

		log.Debug().
			Str("command", cmd.Path).
			Int("exit_code", exitCode).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Command failed, retrying after delay")
		r.sleep(delay)
		delay *= 2

		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}

	if !cmd.succeeded(res.ExitCode) && !cmd.AllowFailure {
		return res, &CommandError{
			Command:  commandLine(cmd),
			ExitCode: res.ExitCode,
			Output:   res.Output,
		}
	}
	return res, nil
}

func (c Command) succeeded(exitCode int) bool {
	if exitCode == 0 {
		return true
	}
	for _, code := range c.SuccessCodes {
		if exitCode == code {
			return true
		}
	}
	return false
}

func commandLine(cmd Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Path
	}
	return cmd.Path + " " + strings.Join(cmd.Args, " ")
}

// executeNative performs one real invocation, capturing combined output.
// A non-zero exit is reported through the exit code, not the error.
func executeNative(ctx context.Context, path string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(output), exitErr.ExitCode(), nil
		}
		return "", 0, err
	}
	return string(output), 0, nil
}
