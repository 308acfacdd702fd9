package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/payloads"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	events := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	dlq := `
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(events).Error)
	require.NoError(t, conn.Exec(dlq).Error)
	return conn
}

func createdEvent(id uuid.UUID) DomainEvent {
	return DomainEvent{
		EventType:     enums.EventDocumentCreated,
		AggregateType: enums.AggregateDocument,
		AggregateID:   id,
		Version:       1,
		Actor:         &ActorRef{Email: "owner@example.com"},
		Data: payloads.DocumentCreatedEvent{
			DocumentID: id,
			Title:      "Residence Document",
			OwnerEmail: "owner@example.com",
			Status:     enums.DocumentStatusCreated,
		},
	}
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)
	id := uuid.New()

	require.NoError(t, svc.Emit(context.Background(), conn, createdEvent(id)))

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventDocumentCreated, rows[0].EventType)
	assert.Equal(t, id, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "owner@example.com", envelope.Actor.Email)

	var data payloads.DocumentCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "Residence Document", data.Title)
}

func TestEmitRequiresTransactionAndKnownEvent(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	require.Error(t, svc.Emit(context.Background(), nil, createdEvent(uuid.New())))

	bad := createdEvent(uuid.New())
	bad.EventType = "document_archived"
	require.Error(t, svc.Emit(context.Background(), conn, bad))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitIfNotExistsQueuesOnce(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)
	id := uuid.New()

	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, createdEvent(id)))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, createdEvent(id)))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, createdEvent(uuid.New())))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", id).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestDLQInsertTruncatesAndCounts(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewDLQRepository(conn)

	msg := strings.Repeat("x", maxDLQErrorLen+50)
	entry := models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventDocumentSigned,
		AggregateType: enums.AggregateDocument,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  10,
	}
	require.NoError(t, repo.InsertTx(conn, entry))
	require.Error(t, repo.InsertTx(nil, entry))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	var stored models.OutboxDLQ
	require.NoError(t, conn.First(&stored).Error)
	require.NotNil(t, stored.ErrorMessage)
	assert.Len(t, *stored.ErrorMessage, maxDLQErrorLen)
}
