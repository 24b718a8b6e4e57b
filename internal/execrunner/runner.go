// Package execrunner spawns a single evaluation command per call,
// enforcing a wall-clock timeout and reporting timeout distinctly from
// a non-zero exit (spec.md §4.2). It never invokes a shell: the
// command string is tokenized and the first token becomes the
// executable, so no shell expansion, substitution, or globbing can
// occur.
package execrunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of running one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Ok       bool
	TimedOut bool
}

// Run tokenizes and executes command in dir, waiting up to timeout.
// An empty command returns a synthetic success (spec.md §4.2, B1).
func Run(ctx context.Context, command, dir string, timeout time.Duration) Result {
	if command == "" {
		return Result{Ok: true, ExitCode: 0}
	}

	tokens, err := Tokenize(command)
	if err != nil || len(tokens) == 0 {
		return Result{Ok: false, ExitCode: -1, Stderr: fmt.Sprintf("invalid command: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, tokens[0], tokens[1:]...) // #nosec G204 -- argv-level spawn, no shell
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcAttr(cmd)

	startErr := cmd.Start()
	if startErr != nil {
		return Result{Ok: false, ExitCode: -1, Stderr: startErr.Error()}
	}

	waitErr := cmd.Wait()

	if runCtx.Err() == context.DeadlineExceeded {
		killProcessGroup(cmd)
		log.Warn().Str("command", tokens[0]).Dur("timeout", timeout).Msg("command timed out")
		return Result{
			Ok:       false,
			TimedOut: true,
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   fmt.Sprintf("Command timed out after %ds\n%s", int(timeout.Seconds()), stderr.String()),
		}
	}

	exitCode := 0
	ok := true
	if waitErr != nil {
		ok = false
		if exitErr, isExit := waitErr.(*exec.ExitError); isExit {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return Result{
		Ok:       ok,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}
