package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrEncoderTimeout reports that the encoder was killed after Runner.Timeout.
var ErrEncoderTimeout = errors.New("encoder timed out")

// EncoderError describes a failed encoder run. ExitCode is -1 when the
// process could not be started or was killed.
type EncoderError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *EncoderError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("encoder exited with code %d: %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("encoder failed: %v", e.Err)
}

func (e *EncoderError) Unwrap() error { return e.Err }

// DefaultTimeout bounds a single encoder run.
const DefaultTimeout = 5 * time.Minute

const outputLimit = 64 << 10

// Runner executes encoder commands. The exit code is the only success
// signal; output is kept for diagnostics.
type Runner struct {
	// Timeout kills the whole process group when exceeded; zero disables it.
	Timeout time.Duration
}

// Run executes c and returns its combined stdout/stderr.
func (r Runner) Run(ctx context.Context, c Command) (string, error) {
	args, err := c.Args()
	if err != nil {
		return "", err
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out := &tailBuffer{max: outputLimit}
	cmd := exec.CommandContext(runCtx, c.Binary, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 5 * time.Second
	setProcessGroup(cmd)

	err = cmd.Run()
	if err == nil {
		return out.String(), nil
	}

	switch {
	case ctx.Err() != nil:
		return out.String(), &EncoderError{ExitCode: -1, Output: out.String(), Err: ctx.Err()}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return out.String(), &EncoderError{
			ExitCode: -1,
			Output:   out.String(),
			Err:      fmt.Errorf("%w after %s", ErrEncoderTimeout, r.Timeout),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.String(), &EncoderError{ExitCode: exitErr.ExitCode(), Output: out.String(), Err: err}
	}
	return out.String(), &EncoderError{ExitCode: -1, Output: out.String(), Err: err}
}

// tailBuffer keeps the last max bytes written, where encoders put errors.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
