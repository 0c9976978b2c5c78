package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var hotelCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// RetryPolicyConfig configures a property or global retry strategy
// (spec.md §4.6).
type RetryPolicyConfig struct {
	MaxAttempts         int     `json:"max_attempts"`
	BackoffStrategy     string  `json:"backoff_strategy"` // "exponential" | "linear"
	InitialDelaySeconds int     `json:"initial_delay_seconds"`
	MaxDelaySeconds     int     `json:"max_delay_seconds"`
	Multiplier          float64 `json:"multiplier"`
}

// Timeouts configures transport timeouts (spec.md §4.5).
type Timeouts struct {
	ConnectSeconds int `json:"connect_seconds"`
	RequestSeconds int `json:"request_seconds"`
}

// PropertyConfig is the merged, per-property configuration view
// (spec.md §3, §4.1).
type PropertyConfig struct {
	PropertyID         string               `json:"property_id"`
	HotelCode          string               `json:"hotel_code"`
	ExternalPropertyID string               `json:"external_property_id,omitempty"`
	PropertyCode       string               `json:"property_code,omitempty"`
	Username           string               `json:"username"`
	Password           string               `json:"-"`
	EndpointURL        string               `json:"endpoint_url"`
	Environment        Environment          `json:"environment"`
	Timeouts           Timeouts             `json:"timeouts"`
	RetryPolicy        RetryPolicyConfig    `json:"retry_policy"`
	EnabledTypes       map[MessageType]bool `json:"enabled_types"`
	Active             bool                 `json:"active"`

	// AutoSendInventoryUpdates drives the orchestrator's CHAIN step: a
	// reservation job reaching COMPLETED enqueues a follow-up inventory
	// job when set (spec.md §4.8/§4.12 config key
	// message_types.reservation.auto_send_inventory_updates).
	AutoSendInventoryUpdates bool `json:"auto_send_inventory_updates"`

	// ExternalSystemHandlesLinkedRates waives pkg/rules'
	// linked-rate-master-must-exist check and the rate builder's
	// expansion of linked plans, leaving derived-rate computation to the
	// CRS (config key external_system_handles_linked_rates).
	ExternalSystemHandlesLinkedRates bool `json:"external_system_handles_linked_rates"`

	// BatchSizes overrides the default per-MessageType batch sizes the
	// orchestrator splits outbound jobs into (inventory 100 / rates 50
	// by default, spec.md §4.8).
	BatchSizes map[MessageType]int `json:"batch_sizes,omitempty"`

	// CustomRules are the property's optional CEL business rules
	// (config key validation.custom_rules), compiled into a
	// rules.Engine by the orchestrator's validation stage.
	CustomRules []CustomRuleSpec `json:"custom_rules,omitempty"`
}

// CustomRuleSpec is the config-layer shape of one custom business rule;
// it mirrors pkg/rules.RuleSpec so domain stays free of an import on the
// rules package (which itself depends on domain's FieldViolation type).
type CustomRuleSpec struct {
	Name        string `json:"name"`
	Expression  string `json:"expression"`
	FailMessage string `json:"fail_message"`
}

var recognizedMessageTypes = map[MessageType]bool{
	MessageTypeInventory:    true,
	MessageTypeRates:        true,
	MessageTypeReservation:  true,
	MessageTypeRestrictions: true,
	MessageTypeGroupBlock:   true,
}

// Validate enforces spec.md §3's PropertyConfig invariants, returning one
// ErrorKind (Configuration, non-recoverable) with one FieldViolation per
// broken rule so all issues are reported together, per spec.md §4.1's
// `validate(property-id) -> issue-list` contract.
func (c PropertyConfig) Validate() *ErrorKind {
	var violations []FieldViolation

	if !hotelCodePattern.MatchString(c.HotelCode) {
		violations = append(violations, FieldViolation{Field: "hotel_code", Rule: "pattern:^[A-Za-z0-9_-]{1,20}$", Value: c.HotelCode})
	}
	if len(c.Password) < 8 {
		violations = append(violations, FieldViolation{Field: "password", Rule: "min_length:8", Value: "<redacted>"})
	}
	if !strings.HasPrefix(strings.ToLower(c.EndpointURL), "https://") {
		violations = append(violations, FieldViolation{Field: "endpoint_url", Rule: "scheme:https", Value: c.EndpointURL})
	}
	for t := range c.EnabledTypes {
		if !recognizedMessageTypes[t] {
			violations = append(violations, FieldViolation{Field: "enabled_types", Rule: "recognized_message_type", Value: string(t)})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return NewErrorKind(ErrorKindConfiguration, fmt.Sprintf("property config %s failed validation", c.PropertyID), nil).
		WithFieldViolations(nil, violations...)
}

// CacheTTL returns the TTL for a given configuration scope (spec.md
// §4.1: "GLOBAL long, PROPERTY medium, CREDENTIALS short, CACHE very
// short").
func (s ConfigScope) CacheTTL() time.Duration {
	switch s {
	case ConfigScopeGlobal:
		return 1 * time.Hour
	case ConfigScopeProperty:
		return 10 * time.Minute
	case ConfigScopeCredentials:
		return 2 * time.Minute
	case ConfigScopeCache:
		return 15 * time.Second
	default:
		return 0
	}
}
