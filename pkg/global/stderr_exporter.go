package global

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type stderrExporter struct{}

// NewStderrExporter produces the trivial wiring to route trace spans
// to the log. This is noisy and only intended for basic debugging.
func NewStderrExporter() sdktrace.SpanExporter {
	return stderrExporter{}
}

func (stderrExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		log.Printf("%s %s %s %s %s %s",
			span.StartTime().Format(time.RFC3339),
			span.EndTime().Sub(span.StartTime()).String(),
			span.Name(),
			span.Status().Code.String(),
			span.Status().Description,
			formatEvents(span.Events()))
	}
	return nil
}

func (stderrExporter) Shutdown(ctx context.Context) error {
	return nil
}

func formatEvents(events []sdktrace.Event) string {
	var out strings.Builder
	for _, event := range events {
		out.WriteString(event.Name)
		out.WriteString("{")
		for i, attribute := range event.Attributes {
			if i > 0 {
				out.WriteString(",")
			}
			out.WriteString(string(attribute.Key))
			out.WriteString("=")
			out.WriteString(fmt.Sprintf("%#v", attribute.Value.Emit()))
		}
		out.WriteString("}")
	}
	return out.String()
}
