package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRun_Success(t *testing.T) {
	requireShell(t)
	stdout, _, err := New().Run(context.Background(), "sh", nil, "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(stdout))
}

func TestRun_Failures(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name     string
		runner   Runner
		timeout  time.Duration
		cmd      string
		args     []string
		kind     Kind
		sentinel error
		check    func(t *testing.T, stdout []byte, te *ToolError)
	}{
		{
			name:     "missing binary",
			runner:   New(),
			cmd:      "legal-intake-no-such-tool",
			kind:     KindUnavailable,
			sentinel: common.ErrToolUnavailable,
		},
		{
			name:     "timeout",
			runner:   New(),
			timeout:  100 * time.Millisecond,
			cmd:      "sh",
			args:     []string{"-c", "sleep 5"},
			kind:     KindTimeout,
			sentinel: common.ErrToolTimeout,
		},
		{
			name:     "non-zero exit keeps stderr tail",
			runner:   New(),
			cmd:      "sh",
			args:     []string{"-c", "yes e | head -c 7000 >&2; printf END >&2; exit 3"},
			kind:     KindExit,
			sentinel: common.ErrToolFailed,
			check: func(t *testing.T, _ []byte, te *ToolError) {
				assert.Equal(t, 3, te.ExitCode)
				assert.Len(t, te.Stderr, DefaultStderrTail)
				assert.True(t, strings.HasSuffix(te.Stderr, "END"))
			},
		},
		{
			name:     "output cap",
			runner:   New(WithMaxOutput(1024)),
			cmd:      "sh",
			args:     []string{"-c", "head -c 5000000 /dev/zero"},
			kind:     KindOutputLimit,
			sentinel: common.ErrToolFailed,
			check: func(t *testing.T, stdout []byte, _ *ToolError) {
				assert.Len(t, stdout, 1024)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}

			stdout, _, err := tt.runner.Run(ctx, tt.cmd, nil, tt.args...)
			require.Error(t, err)

			var te *ToolError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.cmd, te.Tool)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, common.IsToolError(err))
			if tt.check != nil {
				tt.check(t, stdout, te)
			}
		})
	}
}

func TestLimitedBuffer_CapHoldsThroughCopy(t *testing.T) {
	overflowed := 0
	b := &limitedBuffer{max: 10, onOverflow: func() { overflowed++ }}

	n, err := io.Copy(b, bytes.NewReader(bytes.Repeat([]byte("x"), 100)))
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
	assert.Equal(t, 10, b.Len())
	assert.True(t, b.overflow)
	assert.Equal(t, 1, overflowed)

	_, _ = b.Write([]byte("more"))
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, 1, overflowed)
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{max: 4}
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("defg"))
	assert.Equal(t, "defg", b.String())
}

func TestFunc(t *testing.T) {
	var got []string
	r := Func(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		got = append([]string{name}, args...)
		return []byte("ok"), nil, nil
	})
	out, _, err := r.Run(context.Background(), "tesseract", nil, "page.png", "stdout")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.Equal(t, []string{"tesseract", "page.png", "stdout"}, got)
}
