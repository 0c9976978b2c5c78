// Package transport sends outbound SOAP requests over HTTPS (spec.md
// §4.5). It is a single synchronous send(request) -> (response, error
// kind): it does not retry (pkg/retry and pkg/orchestrator own that) and
// does not interpret business-level SOAP faults beyond classifying the
// low-level failure.
package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/roli854/travelclick-htng-gateway/pkg/circuit"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	gatewaytls "github.com/roli854/travelclick-htng-gateway/pkg/crypto/tls"
)

// Trace captures the raw request/response bytes and their hashes for the
// AuditEntry, the gateway's repurposing of the teacher's connector
// ProvenanceTag (request hash, response hash, fetched-at).
type Trace struct {
	RequestHash  string
	ResponseHash string
	RequestBody  []byte
	ResponseBody []byte
	FetchedAt    time.Time
	StatusCode   int
}

// Request is one outbound SOAP send.
type Request struct {
	Endpoint    string
	Body        []byte
	Timeout     time.Duration // per message-type, falls back to 45s
	AcceptGzip  bool
}

// Client sends SOAP requests over HTTPS with TLS verification, a
// per-endpoint concurrency gate, and circuit-breaker awareness. It never
// retries internally. The default Transport's TLS config comes from
// pkg/crypto/tls, so CRS connections get the same minimum-TLS-1.3 and
// hybrid-curve posture as the rest of the gateway's outbound traffic.
type Client struct {
	http     *http.Client
	breakers *circuit.Registry

	mu          sync.Mutex
	concurrency int64
	sems        map[string]*semaphore.Weighted

	ConnectTimeout time.Duration
}

// NewClient builds a transport Client. concurrencyPerEndpoint bounds the
// number of simultaneous in-flight requests to any single endpoint
// (spec.md §4.8 default: 8) independent of HTTP connection pooling.
func NewClient(httpClient *http.Client, breakers *circuit.Registry, concurrencyPerEndpoint int) *Client {
	if httpClient == nil {
		// ServerName is left blank: net/http fills it in per-request from
		// the dialed host, so one Transport correctly verifies whichever
		// CRS endpoint (production/certification/per-brand) a Request
		// targets rather than pinning to a single hostname.
		httpClient = &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: gatewaytls.HybridPQCConfig(),
			},
		}
	}
	if concurrencyPerEndpoint <= 0 {
		concurrencyPerEndpoint = 8
	}
	return &Client{
		http:           httpClient,
		breakers:       breakers,
		concurrency:    int64(concurrencyPerEndpoint),
		sems:           make(map[string]*semaphore.Weighted),
		ConnectTimeout: 30 * time.Second,
	}
}

func (c *Client) semaphoreFor(endpoint string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sems[endpoint]
	if !ok {
		s = semaphore.NewWeighted(c.concurrency)
		c.sems[endpoint] = s
	}
	return s
}

// Send performs one synchronous POST. On success it returns the response
// body, the Trace for the audit log, and a nil ErrorKind. On any
// transport-level failure it returns a classified ErrorKind and still
// returns whatever Trace was captured (for partial-failure auditing).
func (c *Client) Send(ctx context.Context, req Request) ([]byte, Trace, *domain.ErrorKind) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	if c.breakers != nil {
		breaker := c.breakers.Get(req.Endpoint)
		if !breaker.Allow() {
			return nil, Trace{}, domain.NewErrorKind(domain.ErrorKindConnection, "circuit breaker open for "+req.Endpoint, nil).
				WithContext(map[string]any{"endpoint": req.Endpoint})
		}
		// Success/Failure is recorded by the caller via RecordOutcome once
		// it has folded in its own business-level judgment of the response.
	}

	sem := c.semaphoreFor(req.Endpoint)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, Trace{}, domain.NewErrorKind(domain.ErrorKindTimeout, "waiting for endpoint concurrency slot", err)
	}
	defer sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, Trace{}, domain.NewErrorKind(domain.ErrorKindConfiguration, "building HTTP request", err)
	}
	httpReq.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	if req.AcceptGzip {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}

	reqHash := sha256.Sum256(req.Body)
	trace := Trace{
		RequestHash: hex.EncodeToString(reqHash[:]),
		RequestBody: req.Body,
		FetchedAt:   time.Now(),
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, trace, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, trace, domain.NewErrorKind(domain.ErrorKindConnection, "reading response body", err)
	}

	respHash := sha256.Sum256(body)
	trace.ResponseHash = hex.EncodeToString(respHash[:])
	trace.ResponseBody = body
	trace.StatusCode = resp.StatusCode

	if resp.StatusCode >= 500 {
		return body, trace, domain.NewErrorKind(domain.ErrorKindConnection, "HTTP "+resp.Status, nil).WithHTTPStatus(resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return body, trace, domain.NewErrorKind(domain.ErrorKindValidation, "HTTP "+resp.Status, nil).WithHTTPStatus(resp.StatusCode)
	}

	return body, trace, nil
}

// RecordOutcome tells the circuit breaker for endpoint whether the send
// (and whatever business-level interpretation the caller layered on top)
// should count as a success or a failure.
func (c *Client) RecordOutcome(endpoint string, success bool) {
	if c.breakers == nil {
		return
	}
	b := c.breakers.Get(endpoint)
	if success {
		b.Success()
	} else {
		b.Failure()
	}
}

func classifyTransportError(err error) *domain.ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewErrorKind(domain.ErrorKindTimeout, "request timed out", err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "tls") || strings.Contains(msg, "certificate") || strings.Contains(msg, "x509"):
		return domain.NewErrorKind(domain.ErrorKindConnection, "TLS handshake failed", err)
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "lookup"):
		return domain.NewErrorKind(domain.ErrorKindConnection, "DNS resolution failed", err)
	default:
		return domain.NewErrorKind(domain.ErrorKindConnection, "connection failed", err)
	}
}

// IsAuthenticationFault reports whether a SOAP Fault read from a response
// body should escalate to the Authentication ErrorKind rather than
// whatever business-logic kind the parser would otherwise assign
// (spec.md §4.5: code == AUTHENTICATION_FAILED or faultstring containing
// "Unauthorized"/"Authentication").
func IsAuthenticationFault(faultCode, faultString string) bool {
	if faultCode == "AUTHENTICATION_FAILED" {
		return true
	}
	lower := strings.ToLower(faultString)
	return strings.Contains(lower, "unauthorized") || strings.Contains(lower, "authentication")
}
