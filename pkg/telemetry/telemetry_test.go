package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "travelclick-htng-gateway", config.ServiceName)
	require.Equal(t, "development", config.Environment)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.True(t, config.Enabled)
	require.False(t, config.Insecure)
}

func TestNew_DisabledSkipsProviderInit(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	// Tracer()/Meter() fall back to the global no-op providers rather than
	// panicking on an uninitialized provider.
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_WithTLSPathsConfigured(t *testing.T) {
	config := &Config{
		Enabled:  true,
		Insecure: false,
		CertFile: "/path/to/cert.pem",
		KeyFile:  "/path/to/key.pem",
		CAFile:   "/path/to/ca.pem",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	p, err := New(ctx, config)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestTrackMessage_RecordsDurationAndError(t *testing.T) {
	p, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	ctx, done := p.TrackMessage(context.Background(), "crs.send.rates",
		OutboundSend("prop-1", "RATES", "outbound")...)
	require.NotNil(t, ctx)

	done(errors.New("boom"))
}

func TestOutboundSend_BuildsExpectedAttributes(t *testing.T) {
	attrs := OutboundSend("prop-1", "RATES", "outbound")
	require.Contains(t, attrs, attribute.String("travelclick.property.id", "prop-1"))
	require.Contains(t, attrs, attribute.String("travelclick.message.type", "RATES"))
	require.Contains(t, attrs, attribute.String("travelclick.message.direction", "outbound"))
}

func TestJobTransition_IncludesRetryCount(t *testing.T) {
	attrs := JobTransition("prop-1", "INVENTORY", "RETRYING", 3)
	require.Contains(t, attrs, attribute.Int("travelclick.job.retry_count", 3))
	require.Contains(t, attrs, attribute.String("travelclick.job.status", "RETRYING"))
}
