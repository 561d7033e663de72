//go:build unix

package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripi-dev/ripi/internal/telemetry"
)

// runHook executes the hook and enforces a timeout, killing the process group
// on expiration to ensure descendant processes are terminated.
func (r *Runner) runHook(ctx context.Context, hookPath, event, name string, payload []byte) (retErr error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "hook.exec",
		trace.WithAttributes(
			attribute.String("hook.event", event),
			attribute.String("hook.path", hookPath),
			attribute.String("ripi.issue", name),
		),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	// #nosec G204 -- hookPath is from the board's own .ripi/hooks directory
	cmd := exec.Command(hookPath, name, event)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group, so a timeout can kill the hook's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return hookError(hookPath, err, &stderr)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
				return fmt.Errorf("kill process group: %w", err)
			}
		}
		<-done
		addHookOutputEvents(span, &stdout, &stderr)
		return hookError(hookPath, ctx.Err(), &stderr)
	case err := <-done:
		addHookOutputEvents(span, &stdout, &stderr)
		if err != nil {
			return hookError(hookPath, err, &stderr)
		}
		return nil
	}
}
