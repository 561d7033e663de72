//go:build windows

package hooks

import (
	"bytes"
	"context"
	"os/exec"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripi-dev/ripi/internal/telemetry"
)

// runHook executes the hook and enforces a timeout on Windows.
// Windows lacks Unix-style process groups; on timeout we best-effort kill
// the started process. Descendants that detach may survive.
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

	cmd := exec.Command(hookPath, name, event)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

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
			_ = cmd.Process.Kill()
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
