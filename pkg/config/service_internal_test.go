package config

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func propertyConfigColumns() []string {
	return []string{
		"property_id", "hotel_code", "external_property_id", "property_code",
		"username", "password_encrypted", "environment", "config_json", "active",
	}
}

func TestService_Get_LoadsFromPostgresAndDecryptsPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	global := Load()
	global.CredentialEncryptionKey = "a-test-secret-key"
	global.Endpoints[domain.EnvironmentProduction] = "https://crs.example.test/HTNG2011B"

	svc, err := NewService(db, nil, global)
	require.NoError(t, err)

	encrypted, err := svc.cipher.encrypt("htng-pw")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM travelclick_property_config WHERE property_id=\\$1").
		WillReturnRows(sqlmock.NewRows(propertyConfigColumns()).AddRow(
			"prop-1", "HOTEL1", "", "", "htng-user", encrypted, "production", nil, true,
		))

	cfg, err := svc.Get(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "HOTEL1", cfg.HotelCode)
	assert.Equal(t, "htng-pw", cfg.Password)
	assert.Equal(t, "https://crs.example.test/HTNG2011B", cfg.EndpointURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Get_UnknownPropertyWrapsErrPropertyNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc, err := NewService(db, nil, Load())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM travelclick_property_config WHERE property_id=\\$1").
		WillReturnError(sql.ErrNoRows)

	_, err = svc.Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrPropertyNotFound))
}

func TestService_BuildPropertyConfig_RejectsConfigJSONFailingSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	global := Load()
	global.Endpoints[domain.EnvironmentProduction] = "https://crs.example.test/HTNG2011B"
	svc, err := NewService(db, nil, global)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM travelclick_property_config WHERE property_id=\\$1").
		WillReturnRows(sqlmock.NewRows(propertyConfigColumns()).AddRow(
			"prop-1", "HOTEL1", "", "", "htng-user", "", "production",
			`{"retry_policy":{"backoff_strategy":"not-a-real-strategy"}}`, true,
		))

	_, err = svc.Get(context.Background(), "prop-1")
	assert.Error(t, err)
}

func TestService_GetByHotelCode_ResolvesPropertyIDThenLoads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	global := Load()
	global.Endpoints[domain.EnvironmentProduction] = "https://crs.example.test/HTNG2011B"
	svc, err := NewService(db, nil, global)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT property_id FROM travelclick_property_config WHERE hotel_code=\\$1").
		WillReturnRows(sqlmock.NewRows([]string{"property_id"}).AddRow("prop-1"))
	mock.ExpectQuery("SELECT (.+) FROM travelclick_property_config WHERE property_id=\\$1").
		WillReturnRows(sqlmock.NewRows(propertyConfigColumns()).AddRow(
			"prop-1", "HOTEL1", "", "", "htng-user", "", "production", nil, true,
		))

	cfg, err := svc.GetByHotelCode(context.Background(), "HOTEL1")
	require.NoError(t, err)
	assert.Equal(t, "prop-1", cfg.PropertyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_GetByHotelCode_UnknownCodeWrapsErrPropertyNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc, err := NewService(db, nil, Load())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT property_id FROM travelclick_property_config WHERE hotel_code=\\$1").
		WillReturnError(sql.ErrNoRows)

	_, err = svc.GetByHotelCode(context.Background(), "UNKNOWN")
	assert.True(t, errors.Is(err, ErrPropertyNotFound))
}

func TestService_Invalidate_NoopsWithoutRedis(t *testing.T) {
	svc, err := NewService(nil, nil, Load())
	require.NoError(t, err)
	assert.NoError(t, svc.Invalidate(context.Background(), "prop-1"))
}
