package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// PropertyProfile is the on-disk YAML overlay for one property: the
// operator-maintained source of truth that LoadAllProfiles seeds the
// property_config table from at deploy time. Credentials are expected to
// arrive pre-encrypted or be filled in by a secrets-injection step; the
// loader itself does no decryption.
type PropertyProfile struct {
	PropertyID         string   `yaml:"property_id" json:"property_id,omitempty"`
	HotelCode          string   `yaml:"hotel_code" json:"hotel_code,omitempty"`
	ExternalPropertyID string   `yaml:"external_property_id,omitempty" json:"external_property_id,omitempty"`
	PropertyCode       string   `yaml:"property_code,omitempty" json:"property_code,omitempty"`
	Username           string   `yaml:"username" json:"username,omitempty"`
	Password           string   `yaml:"password" json:"password,omitempty"`
	Environment        string   `yaml:"environment" json:"environment,omitempty"`
	EnabledTypes       []string `yaml:"enabled_types,omitempty" json:"enabled_types,omitempty"`
	Active             *bool    `yaml:"active,omitempty" json:"active,omitempty"`

	Timeouts    *domain.Timeouts          `yaml:"timeouts,omitempty" json:"timeouts,omitempty"`
	RetryPolicy *domain.RetryPolicyConfig `yaml:"retry_policy,omitempty" json:"retry_policy,omitempty"`

	AutoSendInventoryUpdates         *bool                    `yaml:"auto_send_inventory_updates,omitempty" json:"auto_send_inventory_updates,omitempty"`
	ExternalSystemHandlesLinkedRates *bool                    `yaml:"external_system_handles_linked_rates,omitempty" json:"external_system_handles_linked_rates,omitempty"`
	BatchSizes                       map[string]int           `yaml:"batch_sizes,omitempty" json:"batch_sizes,omitempty"`
	CustomRules                      []domain.CustomRuleSpec  `yaml:"custom_rules,omitempty" json:"custom_rules,omitempty"`
}

// LoadProfile loads a single property profile YAML by hotel code. It
// searches profilesDir for profile_<hotelcode>.yaml (case-insensitive).
func LoadProfile(profilesDir, hotelCode string) (*PropertyProfile, error) {
	code := strings.ToLower(hotelCode)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", code))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load profile %q: %w", hotelCode, err)
	}

	var profile PropertyProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("config: parse profile %q: %w", hotelCode, err)
	}
	if profile.HotelCode == "" {
		profile.HotelCode = hotelCode
	}
	return &profile, nil
}

// LoadAllProfiles loads every profile_*.yaml file in profilesDir, keyed by
// hotel code.
func LoadAllProfiles(profilesDir string) (map[string]*PropertyProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*PropertyProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}

		var profile PropertyProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if profile.HotelCode == "" {
			base := filepath.Base(path)
			profile.HotelCode = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}
		profiles[strings.ToLower(profile.HotelCode)] = &profile
	}
	return profiles, nil
}

// Merge overlays the profile onto a GlobalConfig to produce a
// domain.PropertyConfig, applying defaults for anything the profile
// leaves unset (spec.md §4.1: "merges with per-property overrides").
func (p *PropertyProfile) Merge(global *GlobalConfig) domain.PropertyConfig {
	env := domain.Environment(p.Environment)
	if env == "" {
		env = domain.EnvironmentProduction
	}

	enabled := make(map[domain.MessageType]bool, len(global.DefaultEnabledTypes))
	for t, v := range global.DefaultEnabledTypes {
		enabled[t] = v
	}
	for _, t := range p.EnabledTypes {
		enabled[domain.MessageType(strings.ToUpper(t))] = true
	}

	timeouts := global.DefaultTimeouts
	if p.Timeouts != nil {
		timeouts = *p.Timeouts
	}
	retry := global.DefaultRetryPolicy
	if p.RetryPolicy != nil {
		retry = *p.RetryPolicy
	}

	active := true
	if p.Active != nil {
		active = *p.Active
	}

	autoSendInventory := global.DefaultAutoSendInventoryUpdates
	if p.AutoSendInventoryUpdates != nil {
		autoSendInventory = *p.AutoSendInventoryUpdates
	}
	externalHandlesLinked := global.DefaultExternalSystemHandlesLinkedRates
	if p.ExternalSystemHandlesLinkedRates != nil {
		externalHandlesLinked = *p.ExternalSystemHandlesLinkedRates
	}

	batchSizes := make(map[domain.MessageType]int, len(global.DefaultBatchSizes))
	for t, v := range global.DefaultBatchSizes {
		batchSizes[t] = v
	}
	for t, v := range p.BatchSizes {
		batchSizes[domain.MessageType(strings.ToUpper(t))] = v
	}

	return domain.PropertyConfig{
		PropertyID:                       p.PropertyID,
		HotelCode:                        p.HotelCode,
		ExternalPropertyID:               p.ExternalPropertyID,
		PropertyCode:                     p.PropertyCode,
		Username:                         p.Username,
		Password:                         p.Password,
		EndpointURL:                      global.Endpoints[env],
		Environment:                      env,
		Timeouts:                         timeouts,
		RetryPolicy:                      retry,
		EnabledTypes:                     enabled,
		Active:                           active,
		AutoSendInventoryUpdates:         autoSendInventory,
		ExternalSystemHandlesLinkedRates: externalHandlesLinked,
		BatchSizes:                       batchSizes,
		CustomRules:                      p.CustomRules,
	}
}
