package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerPrefix = "github.com/noah-isme/gema-projects/"

// Tracer returns the named tracer for a package of this module.
func Tracer(pkg string) trace.Tracer {
	return otel.Tracer(tracerPrefix + pkg)
}

// Fail records err on span and marks it failed with a short status.
func Fail(span trace.Span, err error, status string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
}
