package session

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/thebtf/refineloop/internal/execrunner"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/refineerr"
	"github.com/thebtf/refineloop/internal/telemetry"
	"github.com/thebtf/refineloop/pkg/models"
)

var metrics = telemetry.New()

// StartOptions carries startSession's optional arguments (spec.md §6),
// already defaulted by the transport layer.
type StartOptions struct {
	Commands   models.CommandSet
	Weights    models.Weights
	Halt       models.HaltConfig
	Mode       models.SessionMode
	Rationale  string
	EmaAlpha   float64
	TimeoutSec int
	Preflight  bool
}

// notFoundMarkers are substrings in a failed probe's stderr that
// indicate the command itself could not be resolved, as opposed to
// the command running and simply exiting non-zero.
var notFoundMarkers = []string{
	"command not found",
	"no such file or directory",
	"is not recognized as an internal or external command",
	"executable file not found",
}

// Start validates repoPath and builds a new Session, probing each
// configured command once (spec.md §6 startSession).
func Start(ctx context.Context, fsImpl fsys.FS, repoPath string, opts StartOptions) (*models.Session, *refineerr.Error) {
	info, err := fsImpl.Stat(repoPath)
	if err != nil || !info.IsDir {
		return nil, refineerr.New(refineerr.InvalidParameter, "repoPath %q does not exist or is not a directory", repoPath)
	}
	if opts.Halt.MaxSteps < 1 || opts.Halt.MinSteps < 1 || opts.Halt.PatienceNoImprove < 1 {
		return nil, refineerr.New(refineerr.InvalidParameter, "halt config must have maxSteps, minSteps, patienceNoImprove >= 1")
	}
	if opts.Halt.PassThreshold < 0 || opts.Halt.PassThreshold > 1 {
		return nil, refineerr.New(refineerr.InvalidParameter, "passThreshold must be in [0,1]")
	}
	if opts.EmaAlpha < 0 || opts.EmaAlpha > 1 {
		return nil, refineerr.New(refineerr.InvalidParameter, "emaAlpha must be in [0,1]")
	}

	s := models.NewSession(uuid.NewString(), repoPath)
	s.Commands = opts.Commands
	s.Weights = opts.Weights
	s.Halt = opts.Halt
	s.EmaAlpha = opts.EmaAlpha
	s.TimeoutSec = opts.TimeoutSec
	s.Rationale = truncate(opts.Rationale, MaxRationaleLength)
	if opts.Mode != "" {
		s.Mode = opts.Mode
	}

	if opts.Preflight {
		s.CommandStatus = probeAll(ctx, s.Commands, repoPath)
	}
	metrics.RecordSessionStarted(ctx, string(s.Mode))
	return s, nil
}

func probeAll(ctx context.Context, cmds models.CommandSet, dir string) models.CommandStatusSet {
	return models.CommandStatusSet{
		Build: probeOne(ctx, cmds.Build, dir),
		Test:  probeOne(ctx, cmds.Test, dir),
		Lint:  probeOne(ctx, cmds.Lint, dir),
		Bench: probeOne(ctx, cmds.Bench, dir),
	}
}

func probeOne(ctx context.Context, command, dir string) models.CommandStatus {
	if command == "" {
		return models.StatusUnavailable
	}
	res := execrunner.Run(ctx, command, dir, ProbeTimeout)
	if res.Ok {
		return models.StatusAvailable
	}
	lowered := strings.ToLower(res.Stderr)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lowered, marker) {
			return models.StatusUnavailable
		}
	}
	return models.StatusUnknown
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
