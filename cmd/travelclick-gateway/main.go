// Command travelclick-gateway runs the bidirectional HTNG 2011B
// integration gateway: an inbound HTTP server accepting CRS-pushed SOAP
// notifications, and an outbound endpoint that drives the orchestrator's
// FSM for PMS-initiated sends. It follows the same "connect to
// Postgres, fall back when unset, wire subsystems, serve until SIGINT"
// shape the gateway's teacher uses for its own kernel entrypoint.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roli854/travelclick-htng-gateway/pkg/api"
	"github.com/roli854/travelclick-htng-gateway/pkg/audit"
	"github.com/roli854/travelclick-htng-gateway/pkg/auth"
	"github.com/roli854/travelclick-htng-gateway/pkg/blobstore"
	"github.com/roli854/travelclick-htng-gateway/pkg/circuit"
	"github.com/roli854/travelclick-htng-gateway/pkg/config"
	"github.com/roli854/travelclick-htng-gateway/pkg/database"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/inbound"
	"github.com/roli854/travelclick-htng-gateway/pkg/orchestrator"
	"github.com/roli854/travelclick-htng-gateway/pkg/rules"
	"github.com/roli854/travelclick-htng-gateway/pkg/syncstatus"
	"github.com/roli854/travelclick-htng-gateway/pkg/telemetry"
	"github.com/roli854/travelclick-htng-gateway/pkg/transport"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlns"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	global := config.Load()

	db, err := openDatabase()
	if err != nil {
		logger.Error("connecting to postgres", "error", err)
		return 1
	}
	defer db.Close()

	var redisClient *redis.Client
	if addr := envOr("REDIS_ADDR", ""); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
	}

	telemetryProvider, err := telemetry.New(ctx, telemetry.DefaultConfig())
	if err != nil {
		logger.Error("starting telemetry", "error", err)
		return 1
	}
	defer telemetryProvider.Shutdown(ctx)

	configSvc, err := config.NewService(db, redisClient, global)
	if err != nil {
		logger.Error("building config service", "error", err)
		return 1
	}

	blobs := openBlobStore(ctx, logger)
	auditStore := audit.NewStore(db, blobs, global.BlobThreshold)

	schemas, err := xmlns.NewSchemaVersions(nil, nil)
	if err != nil {
		logger.Error("building schema version registry", "error", err)
		return 1
	}

	breakers := circuit.NewRegistry(circuit.Config{FailureThreshold: 5, ResetTimeout: 30 * time.Second})
	transportClient := transport.NewClient(nil, breakers, 8)
	locker := orchestrator.NewLocker(redisClient, 30*time.Second)
	syncStore := syncstatus.NewStore(db)

	orch := &orchestrator.Orchestrator{
		Audit:     auditStore,
		Transport: transportClient,
		Locker:    locker,
		SyncStore: syncStore,
		Telemetry: telemetryProvider,
		Schemas:   schemas,
	}

	dispatcher := &inbound.Dispatcher{
		Config:    configSvc,
		Audit:     auditStore,
		Jobs:      loggingJobSubmitter{logger: logger},
		Nonces:    auth.NewNonceCache(),
		Telemetry: telemetryProvider,
	}

	limiter := api.NewGlobalRateLimiter(50, 100)
	mux := inbound.NewMux(dispatcher, limiter)

	idempotency := api.IdempotencyMiddleware(api.NewPostgresIdempotencyStore(db, 10*time.Minute))
	mux.Handle("/api/travelclick/outbound", idempotency(outboundHandler(orch, configSvc, logger)))

	addr := ":" + envOr("PORT", "8080")
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("travelclick-gateway listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}

func openDatabase() (*sql.DB, error) {
	port, _ := strconv.Atoi(envOr("PGPORT", "5432"))
	return database.Open(database.ConnectionConfig{
		Host:     envOr("PGHOST", "localhost"),
		Port:     port,
		Database: envOr("PGDATABASE", "travelclick_gateway"),
		User:     envOr("PGUSER", "travelclick"),
		Password: os.Getenv("PGPASSWORD"),
		SSLMode:  envOr("PGSSLMODE", "disable"),
	})
}

func openBlobStore(ctx context.Context, logger *slog.Logger) blobstore.BlobStore {
	bucket := os.Getenv("BLOB_STORE_BUCKET")
	if bucket == "" {
		return blobstore.NewMemoryStore()
	}
	store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		Bucket: bucket,
		Region: envOr("BLOB_STORE_REGION", "us-east-1"),
	})
	if err != nil {
		logger.Warn("falling back to in-memory blob store", "error", err)
		return blobstore.NewMemoryStore()
	}
	return store
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loggingJobSubmitter is the default inbound.JobSubmitter: it logs the
// accepted job. A real deployment supplies its own JobSubmitter mapping
// BodyXML into PMS-specific calls; this one exists so the binary runs
// standalone without a PMS integration wired in.
type loggingJobSubmitter struct {
	logger *slog.Logger
}

func (s loggingJobSubmitter) Submit(_ context.Context, job inbound.Job) error {
	s.logger.Info("inbound job accepted",
		"message_id", job.MessageID, "property_id", job.PropertyID,
		"hotel_code", job.HotelCode, "type", job.Type)
	return nil
}

// outboundRequest is the JSON shape POSTed by the caller driving an
// outbound send (spec.md's "caller -> Orchestrator" dataflow); it embeds
// orchestrator.Job directly since that type already carries exactly the
// typed payload each MessageType needs.
type outboundRequest struct {
	PropertyID string `json:"property_id"`
	orchestrator.Job
}

func outboundHandler(orch *orchestrator.Orchestrator, configSvc *config.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.WriteMethodNotAllowed(w)
			return
		}

		var req outboundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.WriteBadRequest(w, "invalid JSON body: "+err.Error())
			return
		}
		req.Job.PropertyID = req.PropertyID

		cfg, err := configSvc.Get(r.Context(), req.PropertyID)
		if err != nil {
			api.WriteNotFound(w, fmt.Sprintf("unknown property %q", req.PropertyID))
			return
		}

		engine, err := rules.NewEngine(toRuleSpecs(cfg.CustomRules))
		if err != nil {
			api.WriteInternal(w, err)
			return
		}

		result, err := orch.Run(r.Context(), req.Job, cfg, engine)
		if err != nil {
			logger.Error("outbound run failed", "error", err, "property_id", req.PropertyID)
			api.WriteInternal(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

func toRuleSpecs(specs []domain.CustomRuleSpec) []rules.RuleSpec {
	out := make([]rules.RuleSpec, len(specs))
	for i, s := range specs {
		out[i] = rules.RuleSpec{Name: s.Name, Expression: s.Expression, FailMessage: s.FailMessage}
	}
	return out
}
