// Package telemetry provides OpenTelemetry tracing and RED metrics for the
// gateway.
//
// Initialize at application startup:
//
//	tp, err := telemetry.New(ctx, telemetry.DefaultConfig())
//	defer tp.Shutdown(ctx)
//
// Wrap an outbound send or inbound dispatch:
//
//	ctx, done := tp.TrackMessage(ctx, "crs.send.rates", telemetry.OutboundSend(propertyID, "RATES", "outbound")...)
//	err := send(ctx)
//	done(err)
package telemetry
