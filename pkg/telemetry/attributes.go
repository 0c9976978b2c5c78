package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Semantic attribute keys for gateway span/metric dimensions.
var (
	AttrPropertyID  = attribute.Key("travelclick.property.id")
	AttrHotelCode   = attribute.Key("travelclick.hotel_code")
	AttrMessageType = attribute.Key("travelclick.message.type")
	AttrDirection   = attribute.Key("travelclick.message.direction")
	AttrMessageID   = attribute.Key("travelclick.message.id")
	AttrBatchID     = attribute.Key("travelclick.batch.id")

	AttrJobStatus  = attribute.Key("travelclick.job.status")
	AttrRetryCount = attribute.Key("travelclick.job.retry_count")

	AttrCircuitName  = attribute.Key("travelclick.circuit.name")
	AttrCircuitState = attribute.Key("travelclick.circuit.state")
)

// OutboundSend builds attributes for an outbound CRS send.
func OutboundSend(propertyID, messageType, direction string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPropertyID.String(propertyID),
		AttrMessageType.String(messageType),
		AttrDirection.String(direction),
	}
}

// JobTransition builds attributes for an orchestrator job state transition.
func JobTransition(propertyID, messageType, status string, retryCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPropertyID.String(propertyID),
		AttrMessageType.String(messageType),
		AttrJobStatus.String(status),
		AttrRetryCount.Int(retryCount),
	}
}

// CircuitTransition builds attributes for a circuit breaker state change.
func CircuitTransition(name, state string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCircuitName.String(name),
		AttrCircuitState.String(state),
	}
}

// InboundDispatch builds attributes for an inbound envelope dispatch.
func InboundDispatch(hotelCode, messageType, messageID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrHotelCode.String(hotelCode),
		AttrMessageType.String(messageType),
		AttrMessageID.String(messageID),
	}
}

// SpanFromContext extracts the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err on the current span, if any.
func SetSpanStatus(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
