package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RemoteOperation represents the type of remote store operation being traced.
type RemoteOperation string

const (
	// RemoteOperationList represents a listing fetch.
	RemoteOperationList RemoteOperation = "list"
	// RemoteOperationCreate represents a create call.
	RemoteOperationCreate RemoteOperation = "create"
	// RemoteOperationUpdate represents an update call.
	RemoteOperationUpdate RemoteOperation = "update"
	// RemoteOperationDelete represents a delete call.
	RemoteOperationDelete RemoteOperation = "delete"
)

// StartRemoteSpan creates a new span for a remote store operation.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartRemoteSpan(ctx, "point", tracing.RemoteOperationList)
//	// ... perform remote call ...
//	endSpan(err)
func StartRemoteSpan(ctx context.Context, resource string, operation RemoteOperation) (context.Context, func(error)) {
	tracer := otel.Tracer("pinmap/remote")

	spanName := string(operation)
	if resource != "" {
		spanName = spanName + " " + resource
	}

	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("remote.resource", resource),
			attribute.String("remote.operation", string(operation)),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartSpan creates a new span for a general operation.
// Returns the new context and a function to end the span.
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	tracer := otel.Tracer("pinmap")

	ctx, span := tracer.Start(ctx, name)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
