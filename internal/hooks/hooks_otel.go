package hooks

import (
	"bytes"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ripi-dev/ripi/hooks"

// maxOutputBytes caps how much hook output is attached to a span.
const maxOutputBytes = 1024

// addHookOutputEvents adds stdout/stderr from a hook execution as span events.
// Each buffer is only recorded if non-empty; output is truncated to maxOutputBytes.
func addHookOutputEvents(span trace.Span, stdout, stderr *bytes.Buffer) {
	if n := stdout.Len(); n > 0 {
		span.AddEvent("hook.stdout", trace.WithAttributes(
			attribute.String("output", truncateOutput(stdout.String())),
			attribute.Int("bytes", n),
		))
	}
	if n := stderr.Len(); n > 0 {
		span.AddEvent("hook.stderr", trace.WithAttributes(
			attribute.String("output", truncateOutput(stderr.String())),
			attribute.Int("bytes", n),
		))
	}
}

func truncateOutput(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "...(truncated)"
}
