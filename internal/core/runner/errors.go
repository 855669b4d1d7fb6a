package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

// Kind classifies why an external command did not succeed.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindTimeout     Kind = "timeout"
	KindExit        Kind = "exit"
	KindOutputLimit Kind = "output_limit"
)

// ToolError is returned by Runner implementations for every failed command.
// Stderr holds the bounded tail of the tool's diagnostic output.
type ToolError struct {
	Tool     string
	Kind     Kind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return fmt.Sprintf("%s is not available: %v", e.Tool, e.Err)
	case KindTimeout:
		return fmt.Sprintf("%s timed out", e.Tool)
	case KindOutputLimit:
		return fmt.Sprintf("%s produced too much output", e.Tool)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d. %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

func (e *ToolError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *ToolError) sentinel() error {
	switch e.Kind {
	case KindUnavailable:
		return common.ErrToolUnavailable
	case KindTimeout:
		return common.ErrToolTimeout
	}
	return common.ErrToolFailed
}

// IsUnavailable reports whether err means the tool binary is missing.
func IsUnavailable(err error) bool {
	return errors.Is(err, common.ErrToolUnavailable)
}

func classify(ctx context.Context, tool string, err error, stderr string) *ToolError {
	te := &ToolError{Tool: tool, Kind: KindExit, ExitCode: -1, Stderr: stderr, Err: err}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, errOutputLimit):
		te.Kind = KindOutputLimit
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		te.Kind = KindUnavailable
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		te.Kind = KindTimeout
	case errors.As(err, &exitErr):
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}
