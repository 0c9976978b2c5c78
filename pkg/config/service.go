package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/redis/go-redis/v9"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roli854/travelclick-htng-gateway/pkg/crypto"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// ErrPropertyNotFound means no property_config row matches the requested
// property id (spec.md §4.1: fatal).
var ErrPropertyNotFound = errors.New("config: property not found")

// ErrEnvironmentMismatch means the resolved property environment has no
// registered endpoint (spec.md §4.1: fatal).
var ErrEnvironmentMismatch = errors.New("config: environment mismatch")

// ErrMissingConfig means a required configuration value is absent
// (spec.md §4.1: recoverable).
var ErrMissingConfig = errors.New("config: missing configuration")

const overrideSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"timeouts": {
			"type": "object",
			"properties": {
				"connect_seconds": {"type": "integer", "minimum": 1},
				"request_seconds": {"type": "integer", "minimum": 1}
			}
		},
		"retry_policy": {
			"type": "object",
			"properties": {
				"max_attempts": {"type": "integer", "minimum": 0},
				"backoff_strategy": {"type": "string", "enum": ["exponential", "linear"]},
				"initial_delay_seconds": {"type": "integer", "minimum": 0},
				"max_delay_seconds": {"type": "integer", "minimum": 0}
			}
		},
		"enabled_types": {
			"type": "array",
			"items": {"type": "string"}
		},
		"auto_send_inventory_updates": {"type": "boolean"},
		"external_system_handles_linked_rates": {"type": "boolean"},
		"batch_sizes": {
			"type": "object",
			"additionalProperties": {"type": "integer", "minimum": 1}
		},
		"custom_rules": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "expression"],
				"properties": {
					"name": {"type": "string"},
					"expression": {"type": "string"},
					"fail_message": {"type": "string"}
				}
			}
		}
	}
}`

// Service is the Postgres+Redis-backed Configuration Service of spec.md
// §4.1: `get(property-id)`, `getGlobal()`, `getEndpoint(env)`,
// `validate(property-id)`, all cached per ConfigScope with TTL-based
// invalidation.
type Service struct {
	db     *sql.DB
	redis  *redis.Client
	global *GlobalConfig
	cipher *credentialCipher
	schema *jsonschema.Schema
}

// NewService builds a Service. redisClient may be nil, in which case
// lookups always go to Postgres (used in tests and the local profile).
func NewService(db *sql.DB, redisClient *redis.Client, global *GlobalConfig) (*Service, error) {
	cipher, err := newCredentialCipher(global.CredentialEncryptionKey, "travelclick-property-credentials")
	if err != nil && global.CredentialEncryptionKey != "" {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const schemaURL = "https://travelclick-gateway.internal/schema/property-config-override.json"
	if err := compiler.AddResource(schemaURL, strings.NewReader(overrideSchemaJSON)); err != nil {
		return nil, fmt.Errorf("config: loading override schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("config: compiling override schema: %w", err)
	}

	return &Service{db: db, redis: redisClient, global: global, cipher: cipher, schema: schema}, nil
}

// GetGlobal returns the gateway-wide default configuration (ConfigScope
// GLOBAL: long TTL, served from the in-process copy since it is loaded
// once at startup and only changes on redeploy).
func (s *Service) GetGlobal(_ context.Context) *GlobalConfig {
	return s.global
}

// GetEndpoint resolves the CRS endpoint URL for an environment.
func (s *Service) GetEndpoint(env domain.Environment) (string, error) {
	url, ok := s.global.Endpoints[env]
	if !ok || url == "" {
		return "", fmt.Errorf("%w: no endpoint registered for environment %q", ErrEnvironmentMismatch, env)
	}
	return url, nil
}

// Get resolves the merged PropertyConfig for a property, cache-aside
// through Redis: the PROPERTY-scope entry holds everything except the
// password, which is cached separately and encrypted under the shorter
// CREDENTIALS TTL (spec.md §4.1).
func (s *Service) Get(ctx context.Context, propertyID string) (domain.PropertyConfig, error) {
	if cfg, ok := s.getCached(ctx, propertyID); ok {
		return cfg, nil
	}

	row, err := s.loadRow(ctx, propertyID)
	if err != nil {
		return domain.PropertyConfig{}, err
	}

	cfg, err := s.buildPropertyConfig(row)
	if err != nil {
		return domain.PropertyConfig{}, err
	}

	s.cachePropertyConfig(ctx, cfg)
	return cfg, nil
}

// GetByHotelCode resolves the merged PropertyConfig for an inbound
// request's hotel code, matching a property_config row whose hotel_code,
// external_property_id, or property_code equals the value (spec.md
// §4.9 step 2: "resolve credentials by hotel-code, matching either
// external-property-id or property-code"). Bypasses the property-id
// cache since the caller doesn't know the property id yet; the result is
// cached afterward like any Get.
func (s *Service) GetByHotelCode(ctx context.Context, hotelCode string) (domain.PropertyConfig, error) {
	var propertyID string
	err := s.db.QueryRowContext(ctx, `
		SELECT property_id FROM travelclick_property_config
		WHERE hotel_code=$1 OR external_property_id=$1 OR property_code=$1`, hotelCode).Scan(&propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PropertyConfig{}, fmt.Errorf("%w: hotel code %s", ErrPropertyNotFound, hotelCode)
	}
	if err != nil {
		return domain.PropertyConfig{}, fmt.Errorf("config: resolving hotel code %s: %w", hotelCode, err)
	}
	return s.Get(ctx, propertyID)
}

// Validate loads the property (bypassing cache, so it always reflects the
// current row) and returns its invariant violations, per spec.md §4.1's
// `validate(property-id) -> issue-list` contract.
func (s *Service) Validate(ctx context.Context, propertyID string) ([]domain.FieldViolation, error) {
	row, err := s.loadRow(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.buildPropertyConfig(row)
	if err != nil {
		return nil, err
	}
	if errKind := cfg.Validate(); errKind != nil {
		return errKind.InvalidFields, nil
	}
	return nil, nil
}

// Invalidate drops the cached PROPERTY and CREDENTIALS entries for a
// property, forcing the next Get to reload from Postgres. Callers
// invoke this after updating a property_config row.
func (s *Service) Invalidate(ctx context.Context, propertyID string) error {
	if s.redis == nil {
		return nil
	}
	keys := []string{cacheKey(domain.ConfigScopeProperty, propertyID), cacheKey(domain.ConfigScopeCredentials, propertyID)}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("config: invalidating cache for %s: %w", propertyID, err)
	}
	return nil
}

type propertyRow struct {
	PropertyID         string
	HotelCode          string
	ExternalPropertyID string
	PropertyCode       string
	Username           string
	PasswordEncrypted  string
	Environment        string
	ConfigJSON         []byte
	Active             bool
}

func (s *Service) loadRow(ctx context.Context, propertyID string) (*propertyRow, error) {
	var row propertyRow
	var configJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT property_id, hotel_code, external_property_id, property_code,
		       username, password_encrypted, environment, config_json, active
		FROM travelclick_property_config WHERE property_id=$1`, propertyID).Scan(
		&row.PropertyID, &row.HotelCode, &row.ExternalPropertyID, &row.PropertyCode,
		&row.Username, &row.PasswordEncrypted, &row.Environment, &configJSON, &row.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, propertyID)
	}
	if err != nil {
		return nil, fmt.Errorf("config: loading property %s: %w", propertyID, err)
	}
	row.ConfigJSON = []byte(configJSON.String)
	return &row, nil
}

// buildPropertyConfig validates the row's config_json overrides against
// the JSON Schema, merges them onto GlobalConfig, and decrypts the
// cached/stored password.
func (s *Service) buildPropertyConfig(row *propertyRow) (domain.PropertyConfig, error) {
	profile := PropertyProfile{
		PropertyID:         row.PropertyID,
		HotelCode:          row.HotelCode,
		ExternalPropertyID: row.ExternalPropertyID,
		PropertyCode:       row.PropertyCode,
		Username:           row.Username,
		Environment:        row.Environment,
		Active:             &row.Active,
	}

	if len(row.ConfigJSON) > 0 {
		var overlay map[string]any
		if err := json.Unmarshal(row.ConfigJSON, &overlay); err != nil {
			return domain.PropertyConfig{}, fmt.Errorf("%w: config_json for %s is not valid JSON: %v", ErrMissingConfig, row.PropertyID, err)
		}
		if err := s.schema.Validate(overlay); err != nil {
			return domain.PropertyConfig{}, fmt.Errorf("config: config_json for %s failed schema validation: %w", row.PropertyID, err)
		}
		if err := json.Unmarshal(row.ConfigJSON, &profile); err != nil {
			return domain.PropertyConfig{}, fmt.Errorf("config: mapping config_json for %s: %w", row.PropertyID, err)
		}
	}

	cfg := profile.Merge(s.global)

	password := row.PasswordEncrypted
	if s.cipher != nil && password != "" {
		plaintext, err := s.cipher.decrypt(password)
		if err != nil {
			return domain.PropertyConfig{}, fmt.Errorf("config: decrypting password for %s: %w", row.PropertyID, err)
		}
		password = plaintext
	}
	cfg.Password = password

	if cfg.EndpointURL == "" {
		return domain.PropertyConfig{}, fmt.Errorf("%w: property %s has no endpoint for environment %q", ErrEnvironmentMismatch, row.PropertyID, cfg.Environment)
	}

	return cfg, nil
}

func cacheKey(scope domain.ConfigScope, propertyID string) string {
	return fmt.Sprintf("travelclick:config:%s:%s", strings.ToLower(string(scope)), propertyID)
}

func (s *Service) getCached(ctx context.Context, propertyID string) (domain.PropertyConfig, bool) {
	if s.redis == nil {
		return domain.PropertyConfig{}, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(domain.ConfigScopeProperty, propertyID)).Result()
	if err != nil {
		return domain.PropertyConfig{}, false
	}
	var cfg domain.PropertyConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return domain.PropertyConfig{}, false
	}

	if encPassword, err := s.redis.Get(ctx, cacheKey(domain.ConfigScopeCredentials, propertyID)).Result(); err == nil && s.cipher != nil {
		if plaintext, err := s.cipher.decrypt(encPassword); err == nil {
			cfg.Password = plaintext
		} else {
			return domain.PropertyConfig{}, false
		}
	} else {
		return domain.PropertyConfig{}, false
	}
	return cfg, true
}

func (s *Service) cachePropertyConfig(ctx context.Context, cfg domain.PropertyConfig) {
	if s.redis == nil {
		return
	}

	cacheable := cfg
	cacheable.Password = ""
	data, err := json.Marshal(cacheable)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, cacheKey(domain.ConfigScopeProperty, cfg.PropertyID), data, domain.ConfigScopeProperty.CacheTTL()).Err()

	if s.cipher != nil && cfg.Password != "" {
		if encPassword, err := s.cipher.encrypt(cfg.Password); err == nil {
			_ = s.redis.Set(ctx, cacheKey(domain.ConfigScopeCredentials, cfg.PropertyID), encPassword, domain.ConfigScopeCredentials.CacheTTL()).Err()
		}
	}
}

// ConfigVersion derives a stable version tag for a merged PropertyConfig
// by RFC 8785 (JCS) canonicalizing its JSON representation and hashing
// the canonical bytes, so the tag changes if and only if the effective
// configuration actually changed (Password is not marshaled, so it does
// not affect the tag). The Redis cache in this file does not use it:
// entries expire by TTL and are dropped by Invalidate.
func ConfigVersion(cfg domain.PropertyConfig) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config: marshaling config for versioning: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("config: canonicalizing config for versioning: %w", err)
	}
	hasher := crypto.NewCanonicalHasher()
	version, err := hasher.Hash(json.RawMessage(canonical))
	if err != nil {
		return "", fmt.Errorf("config: hashing canonical config: %w", err)
	}
	return version, nil
}
