package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/blobstore"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func sampleEnvelope() domain.MessageEnvelope {
	return domain.MessageEnvelope{
		MessageID:  "TC-HOTEL1-INVENTORY-abc",
		Direction:  domain.DirectionOutbound,
		Type:       domain.MessageTypeInventory,
		HotelCode:  "HOTEL1",
		PropertyID: "prop-1",
		Payload:    []byte(`<ota:OTA_HotelInvCountNotifRQ/>`),
		CreatedAt:  time.Now(),
	}
}

func TestCreatePending_InsertsRowAndReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO travelclick_log").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	store := NewStore(db, nil, 0)
	entry, err := store.CreatePending(context.Background(), sampleEnvelope())
	require.NoError(t, err)
	assert.Equal(t, int64(42), entry.ID)
	assert.Equal(t, domain.StatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePending_OffloadsOversizedPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO travelclick_log").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	blobs := blobstore.NewMemoryStore()
	store := NewStore(db, blobs, 8) // tiny threshold forces offload

	env := sampleEnvelope()
	entry, err := store.CreatePending(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, truncationMarker, string(entry.RequestXML))
	assert.NotEmpty(t, entry.RequestBlobRef)

	stored, err := blobs.Get(context.Background(), entry.RequestBlobRef)
	require.NoError(t, err)
	assert.Equal(t, env.Payload, stored)
}

func entryColumns() []string {
	return []string{
		"id", "message_id", "job_id", "direction", "message_type", "property_id", "hotel_code",
		"request_xml", "response_xml", "status", "started_at", "completed_at", "duration_ms",
		"retry_count", "last_error_kind", "last_error_message", "xml_sha256",
		"parent_message_id", "batch_id", "request_blob_ref", "response_blob_ref",
		"version", "created_at", "updated_at",
	}
}

func pendingRow(id int64, version int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(entryColumns()).AddRow(
		id, "TC-HOTEL1-INVENTORY-abc", nil, domain.DirectionOutbound, domain.MessageTypeInventory, "prop-1", "HOTEL1",
		[]byte("<x/>"), nil, domain.StatusPending, nil, nil, int64(0),
		0, nil, nil, "deadbeef",
		nil, nil, nil, nil,
		version, now, now,
	)
}

func TestMarkStarted_TransitionsAndBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM travelclick_log WHERE id=\\$1").
		WillReturnRows(pendingRow(1, 1))
	mock.ExpectExec("UPDATE travelclick_log SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db, nil, 0)
	err = store.MarkStarted(context.Background(), 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkStarted_OptimisticConflictSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM travelclick_log WHERE id=\\$1").
		WillReturnRows(pendingRow(1, 1))
	mock.ExpectExec("UPDATE travelclick_log SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db, nil, 0)
	err = store.MarkStarted(context.Background(), 1)
	assert.ErrorIs(t, err, ErrOptimisticConflict)
}

func TestMarkStarted_RejectsInvalidTransitionFromTerminalState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	completedRow := sqlmock.NewRows(entryColumns()).AddRow(
		1, "TC-HOTEL1-INVENTORY-abc", nil, domain.DirectionOutbound, domain.MessageTypeInventory, "prop-1", "HOTEL1",
		[]byte("<x/>"), []byte("<y/>"), domain.StatusCompleted, nil, now, int64(500),
		0, nil, nil, "deadbeef",
		nil, nil, nil, nil,
		2, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM travelclick_log WHERE id=\\$1").WillReturnRows(completedRow)

	store := NewStore(db, nil, 0)
	err = store.MarkStarted(context.Background(), 1)
	assert.Error(t, err)
}

func TestResolveResponse_FetchesOffloadedPayloadFromBlobStore(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	ref, err := blobs.Store(context.Background(), []byte("<full-response/>"))
	require.NoError(t, err)

	store := NewStore(nil, blobs, 0)
	entry := &domain.AuditEntry{ResponseXML: []byte(truncationMarker), ResponseBlobRef: ref}

	resolved, err := store.ResolveResponse(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "<full-response/>", string(resolved))
}

func TestResolveResponse_ReturnsInlinePayloadUnchanged(t *testing.T) {
	store := NewStore(nil, nil, 0)
	entry := &domain.AuditEntry{ResponseXML: []byte("<inline/>")}

	resolved, err := store.ResolveResponse(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, "<inline/>", string(resolved))
}
