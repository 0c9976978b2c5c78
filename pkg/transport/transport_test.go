package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/circuit"
)

func TestClient_Send_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<soap:Envelope/>`))
	}))
	defer srv.Close()

	client := NewClient(nil, circuit.NewRegistry(circuit.Config{}), 4)
	body, trace, errKind := client.Send(context.Background(), Request{Endpoint: srv.URL, Body: []byte(`<soap:Envelope/>`)})

	require.Nil(t, errKind)
	assert.Equal(t, `<soap:Envelope/>`, string(body))
	assert.NotEmpty(t, trace.RequestHash)
	assert.NotEmpty(t, trace.ResponseHash)
	assert.Equal(t, http.StatusOK, trace.StatusCode)
}

func TestClient_Send_ServerErrorClassifiedAsConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(nil, nil, 4)
	_, _, errKind := client.Send(context.Background(), Request{Endpoint: srv.URL, Body: []byte("x")})

	require.NotNil(t, errKind)
	assert.True(t, errKind.Retryable())
}

func TestClient_Send_CircuitOpenShortCircuits(t *testing.T) {
	breakers := circuit.NewRegistry(circuit.Config{FailureThreshold: 1, ResetTimeout: time.Minute})
	client := NewClient(nil, breakers, 4)

	endpoint := "https://crs.example.com/htng"
	breakers.Get(endpoint).Failure()

	_, _, errKind := client.Send(context.Background(), Request{Endpoint: endpoint, Body: []byte("x")})
	require.NotNil(t, errKind)
}

func TestIsAuthenticationFault(t *testing.T) {
	assert.True(t, IsAuthenticationFault("AUTHENTICATION_FAILED", ""))
	assert.True(t, IsAuthenticationFault("", "Unauthorized access"))
	assert.False(t, IsAuthenticationFault("SOME_OTHER_CODE", "business rule violated"))
}
