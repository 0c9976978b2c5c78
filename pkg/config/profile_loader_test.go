package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

const hotel1Profile = `
property_id: prop-hotel1
hotel_code: HOTEL1
username: htng-user
password: s3cret-pw
environment: production
enabled_types: [group_block]
`

const hotel2Profile = `
property_id: prop-hotel2
hotel_code: HOTEL2
username: htng-user-2
password: another-secret
environment: test
active: false
retry_policy:
  max_attempts: 2
  backoff_strategy: linear
  initial_delay_seconds: 1
  max_delay_seconds: 10
`

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadProfile_ReadsHotelCodeAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "profile_hotel1.yaml", hotel1Profile)

	p, err := LoadProfile(dir, "HOTEL1")
	require.NoError(t, err)
	assert.Equal(t, "prop-hotel1", p.PropertyID)
	assert.Equal(t, "htng-user", p.Username)
	assert.Contains(t, p.EnabledTypes, "group_block")
}

func TestLoadAllProfiles_KeysByLowercaseHotelCode(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "profile_hotel1.yaml", hotel1Profile)
	writeProfile(t, dir, "profile_hotel2.yaml", hotel2Profile)

	profiles, err := LoadAllProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "prop-hotel1", profiles["hotel1"].PropertyID)
	assert.Equal(t, "prop-hotel2", profiles["hotel2"].PropertyID)
}

func TestPropertyProfile_Merge_AppliesGlobalDefaultsAndOverrides(t *testing.T) {
	global := Load()
	global.Endpoints[domain.EnvironmentProduction] = "https://crs.example.test/HTNG2011B"

	dir := t.TempDir()
	writeProfile(t, dir, "profile_hotel1.yaml", hotel1Profile)
	p, err := LoadProfile(dir, "hotel1")
	require.NoError(t, err)

	cfg := p.Merge(global)
	assert.Equal(t, "HOTEL1", cfg.HotelCode)
	assert.Equal(t, domain.EnvironmentProduction, cfg.Environment)
	assert.Equal(t, "https://crs.example.test/HTNG2011B", cfg.EndpointURL)
	assert.True(t, cfg.Active)
	assert.True(t, cfg.EnabledTypes[domain.MessageTypeGroupBlock])
	assert.True(t, cfg.EnabledTypes[domain.MessageTypeInventory]) // inherited default
	assert.Equal(t, global.DefaultRetryPolicy, cfg.RetryPolicy)
}

func TestPropertyProfile_Merge_RetryPolicyOverrideWins(t *testing.T) {
	global := Load()
	global.Endpoints[domain.EnvironmentTest] = "https://crs-test.example.test/HTNG2011B"

	dir := t.TempDir()
	writeProfile(t, dir, "profile_hotel2.yaml", hotel2Profile)
	p, err := LoadProfile(dir, "hotel2")
	require.NoError(t, err)

	cfg := p.Merge(global)
	assert.False(t, cfg.Active)
	assert.Equal(t, 2, cfg.RetryPolicy.MaxAttempts)
	assert.Equal(t, "linear", cfg.RetryPolicy.BackoffStrategy)
}
