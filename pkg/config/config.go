// Package config implements spec.md §4.1's Configuration Service: global
// defaults layered with per-property overrides, cached per ConfigScope with
// scope-appropriate TTLs and invalidated on update.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// GlobalConfig holds the gateway-wide defaults that every PropertyConfig
// merges on top of: endpoints per environment, default retry policy,
// default timeouts, queue names, logging level, and which MessageTypes
// are enabled absent a property-level override.
type GlobalConfig struct {
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	BlobThreshold int

	Endpoints map[domain.Environment]string

	DefaultTimeouts    domain.Timeouts
	DefaultRetryPolicy domain.RetryPolicyConfig

	QueueNames map[domain.MessageType]string

	DefaultEnabledTypes map[domain.MessageType]bool

	DefaultBatchSizes map[domain.MessageType]int

	DefaultAutoSendInventoryUpdates        bool
	DefaultExternalSystemHandlesLinkedRates bool

	// CredentialEncryptionKey seeds the pbkdf2 derivation used to encrypt
	// property passwords before they are cached in Redis.
	CredentialEncryptionKey string
}

// Load reads GlobalConfig from the environment, falling back to the
// defaults spec.md §4.1 and §4.5/§4.6 name (30s connect timeout, 45-180s
// per-message-type request timeout, exponential backoff retry).
func Load() *GlobalConfig {
	cfg := &GlobalConfig{
		LogLevel:      envOr("LOG_LEVEL", "INFO"),
		DatabaseURL:   envOr("DATABASE_URL", "postgres://travelclick@localhost:5432/travelclick?sslmode=disable"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		BlobThreshold: envIntOr("AUDIT_BLOB_THRESHOLD_BYTES", 32*1024),

		Endpoints: map[domain.Environment]string{
			domain.EnvironmentProduction: envOr("CRS_ENDPOINT_PRODUCTION", "https://htng.travelclick.com/HTNG2011B/services"),
			domain.EnvironmentTest:       envOr("CRS_ENDPOINT_TEST", "https://htng-test.travelclick.com/HTNG2011B/services"),
		},

		DefaultTimeouts: domain.Timeouts{
			ConnectSeconds: envIntOr("TRANSPORT_CONNECT_TIMEOUT_SECONDS", 30),
			RequestSeconds: envIntOr("TRANSPORT_REQUEST_TIMEOUT_SECONDS", 60),
		},
		DefaultRetryPolicy: domain.RetryPolicyConfig{
			MaxAttempts:         envIntOr("RETRY_MAX_ATTEMPTS", 5),
			BackoffStrategy:     envOr("RETRY_BACKOFF_STRATEGY", "exponential"),
			InitialDelaySeconds: envIntOr("RETRY_INITIAL_DELAY_SECONDS", 2),
			MaxDelaySeconds:     envIntOr("RETRY_MAX_DELAY_SECONDS", 300),
			Multiplier:          2.0,
		},

		QueueNames: map[domain.MessageType]string{
			domain.MessageTypeInventory:    "travelclick.outbound.inventory",
			domain.MessageTypeRates:        "travelclick.outbound.rates",
			domain.MessageTypeReservation:  "travelclick.outbound.reservation",
			domain.MessageTypeRestrictions: "travelclick.outbound.restrictions",
			domain.MessageTypeGroupBlock:   "travelclick.outbound.groupblock",
		},

		DefaultEnabledTypes: map[domain.MessageType]bool{
			domain.MessageTypeInventory:    true,
			domain.MessageTypeRates:        true,
			domain.MessageTypeReservation:  true,
			domain.MessageTypeRestrictions: true,
			domain.MessageTypeGroupBlock:   false,
		},

		DefaultBatchSizes: map[domain.MessageType]int{
			domain.MessageTypeInventory: 100,
			domain.MessageTypeRates:     50,
		},
		DefaultAutoSendInventoryUpdates:         envOr("AUTO_SEND_INVENTORY_UPDATES", "true") == "true",
		DefaultExternalSystemHandlesLinkedRates: envOr("EXTERNAL_SYSTEM_HANDLES_LINKED_RATES", "false") == "true",

		CredentialEncryptionKey: envOr("CREDENTIAL_ENCRYPTION_KEY", ""),
	}
	return cfg
}

// RequestTimeout returns the request timeout for a MessageType, applying
// spec.md §4.5's wider window for reservation traffic (45-180s band) on
// top of the global default.
func (g *GlobalConfig) RequestTimeout(t domain.MessageType) time.Duration {
	seconds := g.DefaultTimeouts.RequestSeconds
	if t == domain.MessageTypeReservation && seconds < 90 {
		seconds = 90
	}
	return time.Duration(seconds) * time.Second
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
