package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultMaxOutput  = 12 << 20
	DefaultStderrTail = 6000

	waitDelay = 5 * time.Second
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, logger *slog.Logger, args ...string) (stdout, stderr []byte, err error)
}

// Func adapts a plain function to Runner.
type Func func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f Func) Run(ctx context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}

type execRunner struct {
	maxOutput  int
	stderrTail int
}

type Option func(*execRunner)

// WithMaxOutput caps captured stdout. Exceeding it fails the command.
func WithMaxOutput(n int) Option {
	return func(r *execRunner) {
		if n > 0 {
			r.maxOutput = n
		}
	}
}

// WithStderrTail sets how many trailing stderr bytes are kept for diagnostics.
func WithStderrTail(n int) Option {
	return func(r *execRunner) {
		if n > 0 {
			r.stderrTail = n
		}
	}
}

// New returns a Runner backed by os/exec.
func New(opts ...Option) Runner {
	r := &execRunner{maxOutput: DefaultMaxOutput, stderrTail: DefaultStderrTail}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *execRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmdLine := strings.Join(append([]string{name}, args...), " ")
	logger.Debug("running command", "cmd_line", cmdLine)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.WaitDelay = waitDelay
	out := &limitedBuffer{max: r.maxOutput, onOverflow: cancel}
	errb := &tailBuffer{max: r.stderrTail}
	cmd.Stdout = out
	cmd.Stderr = errb

	err := cmd.Run()
	dur := time.Since(start)

	if out.overflow {
		err = errOutputLimit
	}
	if err != nil {
		terr := classify(ctx, name, err, errb.String())
		logger.Error("exec failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"kind", terr.Kind,
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
		return out.Bytes(), errb.Bytes(), terr
	}

	logger.Debug("exec ok",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

var errOutputLimit = errors.New("output limit exceeded")

// limitedBuffer keeps at most max bytes and remembers whether more arrived.
// The buffer is a named field so io.Copy cannot bypass Write via ReadFrom.
type limitedBuffer struct {
	buf        bytes.Buffer
	max        int
	overflow   bool
	onOverflow func()
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); len(p) > room {
		b.buf.Write(p[:max(room, 0)])
		if !b.overflow {
			b.overflow = true
			if b.onOverflow != nil {
				b.onOverflow()
			}
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte { return b.buf.Bytes() }
func (b *limitedBuffer) Len() int      { return b.buf.Len() }

// tailBuffer keeps only the last max bytes written.
type tailBuffer struct {
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) Bytes() []byte  { return b.buf }
func (b *tailBuffer) String() string { return string(b.buf) }
func (b *tailBuffer) Len() int       { return len(b.buf) }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
