// Package scriptcheck executes configured check commands. Each command is an
// independent check unit: exit status and captured output are recorded as
// data, and no command's failure stops the others from being attempted.
package scriptcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/softwarewrighter/guardian/internal/logger"
	"github.com/softwarewrighter/guardian/internal/model"
	guardianerrors "github.com/softwarewrighter/guardian/pkg/errors"
)

// truncationMarker is appended to a captured stream that exceeded the cap.
const truncationMarker = "\n... [output truncated]"

// Options control how check commands are executed.
type Options struct {
	WorkDir        string
	Env            map[string]string
	Shell          string
	Timeout        time.Duration
	MaxOutputBytes int
}

// Runner executes check commands through the shell.
type Runner struct {
	log *logger.Logger
}

// NewRunner creates a script runner.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{log: log.WithComponent("scripts")}
}

// Run executes one command bounded by opts.Timeout. The returned result
// always has a terminal status: passed, failed, timed_out, or errored.
func (r *Runner) Run(ctx context.Context, command string, opts Options) model.ScriptCheckResult {
	result := model.ScriptCheckResult{Command: command}

	shell, shellArgs, err := determineShell(opts.Shell)
	if err != nil {
		result.Status = model.ScriptErrored
		result.Stderr = err.Error()
		return result
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	maxBytes := opts.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}
	stdout := &cappedBuffer{max: maxBytes}
	stderr := &cappedBuffer{max: maxBytes}

	args := append(shellArgs, command)
	cmd := exec.CommandContext(runCtx, shell, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = buildEnv(opts.Env)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	// Give the process group a moment to die before abandoning the pipes.
	cmd.WaitDelay = 2 * time.Second
	setProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.Contents()
	result.Stderr = stderr.Contents()

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Status = model.ScriptTimedOut
	case runErr == nil:
		exit := 0
		result.Status = model.ScriptPassed
		result.ExitCode = &exit
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exit := exitErr.ExitCode()
			result.Status = model.ScriptFailed
			result.ExitCode = &exit
		} else {
			result.Status = model.ScriptErrored
			if result.Stderr == "" {
				result.Stderr = guardianerrors.NewScriptExecutionError(command, runErr).Error()
			}
		}
	}

	r.log.WithFields(map[string]any{
		"command":     command,
		"status":      result.Status,
		"duration_ms": result.Duration.Milliseconds(),
	}).Debug("script check finished")

	return result
}

func determineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// cappedBuffer keeps the first max bytes written and counts the rest as
// truncation. Writes never fail; overflow must not turn into a check error.
type cappedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	remaining := c.max - c.buf.Len()
	switch {
	case remaining <= 0:
		if len(p) > 0 {
			c.truncated = true
		}
	case len(p) > remaining:
		c.buf.Write(p[:remaining])
		c.truncated = true
	default:
		c.buf.Write(p)
	}
	return len(p), nil
}

// Contents returns the captured text with a marker when output was cut off.
func (c *cappedBuffer) Contents() string {
	s := strings.TrimSpace(c.buf.String())
	if c.truncated {
		s += truncationMarker
	}
	return s
}
