package inbound

import (
	"embed"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/api"
	"github.com/roli854/travelclick-htng-gateway/pkg/auth"
)

//go:embed wsdl_assets
var wsdlAssets embed.FS

const maxBodyBytes = 10 << 20 // 10MiB; larger HTNG batches use pkg/blobstore offload on the way out, not in

// NewMux wires the Dispatcher's HTTP surface: the SOAP endpoint CRS peers
// POST to (behind the gateway's rate-limit and request-id middleware), a
// static WSDL description, and a health check, with the CORS middleware
// applied to all three.
//
// The CRS itself never sends an Origin header, but the WSDL and health
// endpoints are routinely hit from browser-based integration consoles and
// status dashboards, so CORS still applies mux-wide rather than only on
// routes a browser calls directly — a later route added to this mux gets
// the same treatment without a separate opt-in.
func NewMux(d *Dispatcher, limiter *api.GlobalRateLimiter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/travelclick/soap", limiter.Middleware(auth.RequestIDMiddleware(http.HandlerFunc(d.ServeSOAP))))
	mux.HandleFunc("/api/travelclick/soap/wsdl", serveWSDL)
	mux.HandleFunc("/api/travelclick/health", serveHealth)

	cors := auth.CORSMiddleware(nil)
	wrapped := http.NewServeMux()
	wrapped.Handle("/", cors(mux))
	return wrapped
}

// ServeSOAP is the http.HandlerFunc for POST /api/travelclick/soap.
func (d *Dispatcher) ServeSOAP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteMethodNotAllowed(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		api.WriteErrorR(w, r, http.StatusBadRequest, "Bad Request", "could not read request body")
		return
	}
	if len(body) > maxBodyBytes {
		api.WriteErrorR(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "request body exceeds the configured limit")
		return
	}

	outcome, err := d.Handle(r.Context(), body)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(outcome.StatusCode)
	_, _ = w.Write(outcome.Body)
}

func serveWSDL(w http.ResponseWriter, _ *http.Request) {
	data, err := wsdlAssets.ReadFile("wsdl_assets/travelclick-gateway.wsdl")
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(data)
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Version is set at build time via -ldflags; "dev" otherwise.
var Version = "dev"

func serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:    "ok",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
