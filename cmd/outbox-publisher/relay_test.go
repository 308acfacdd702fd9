package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/metrics"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/payloads"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/registry"
)

const documentsTopic = "lekhapadi-documents"

func TestDrainOnceRetriesOneRowAndPublishesTheNext(t *testing.T) {
	rows := []models.OutboxEvent{documentRow(t, enums.EventDocumentCreated, 0), documentRow(t, enums.EventDocumentCreated, 0)}
	store := &stubOutbox{rows: rows}
	pub := &stubPublisher{errs: []error{errors.New("unavailable"), nil}}
	relay := newTestRelay(t, store, &stubParking{}, resolverFor(&payloads.DocumentCreatedEvent{}), pub, config.OutboxConfig{})

	handled, err := relay.drainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, []uuid.UUID{rows[0].ID}, store.failed)
	assert.Equal(t, []uuid.UUID{rows[1].ID}, store.published)
	assert.Empty(t, store.terminal)
}

func TestPublishedMessageCarriesDocumentAttributes(t *testing.T) {
	row := documentRow(t, enums.EventDocumentSigned, 0)
	store := &stubOutbox{rows: []models.OutboxEvent{row}}
	pub := &stubPublisher{}
	relay := newTestRelay(t, store, &stubParking{}, resolverFor(&payloads.DocumentSignedEvent{}), pub, config.OutboxConfig{})
	relay.deps.Publishers = func(topic string) publisher {
		assert.Equal(t, documentsTopic, topic)
		return pub
	}

	_, err := relay.drainOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)

	msg := pub.sent[0]
	assert.JSONEq(t, string(row.Payload), string(msg.Data))
	assert.Equal(t, string(enums.EventDocumentSigned), msg.Attributes["event_type"])
	assert.Equal(t, row.AggregateID.String(), msg.Attributes["document_id"])
	assert.Equal(t, row.ID.String(), msg.Attributes["event_id"])
	assert.Equal(t, "1", msg.Attributes["schema_version"])
	assert.Equal(t, []uuid.UUID{row.ID}, store.published)
}

func TestUnresolvableRowIsParked(t *testing.T) {
	row := documentRow(t, enums.EventDocumentDeleted, 0)
	store := &stubOutbox{rows: []models.OutboxEvent{row}}
	parking := &stubParking{}
	resolver := &stubResolver{err: registry.NewNonRetryableError(errors.New("payload does not match schema"))}
	relay := newTestRelay(t, store, parking, resolver, &stubPublisher{}, config.OutboxConfig{})

	_, err := relay.drainOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, parking.entries, 1)

	entry := parking.entries[0]
	assert.Equal(t, row.ID, entry.EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.JSONEq(t, string(row.Payload), string(entry.Payload))
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "schema")
	assert.Equal(t, []uuid.UUID{row.ID}, store.terminal)
}

func TestRowIsParkedOnLastAttempt(t *testing.T) {
	row := documentRow(t, enums.EventSignatureRequested, 1)
	store := &stubOutbox{rows: []models.OutboxEvent{row}}
	parking := &stubParking{}
	pub := &stubPublisher{errs: []error{errors.New("deadline exceeded")}}
	relay := newTestRelay(t, store, parking, resolverFor(&payloads.SignatureRequestedEvent{}), pub, config.OutboxConfig{MaxAttempts: 2})

	_, err := relay.drainOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, parking.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, parking.entries[0].ErrorReason)
	assert.Empty(t, store.failed)
}

func TestMissingPublisherParksRow(t *testing.T) {
	row := documentRow(t, enums.EventDocumentCreated, 0)
	store := &stubOutbox{rows: []models.OutboxEvent{row}}
	parking := &stubParking{}
	relay := newTestRelay(t, store, parking, resolverFor(&payloads.DocumentCreatedEvent{}), nil, config.OutboxConfig{})
	relay.deps.Publishers = func(string) publisher { return nil }

	_, err := relay.drainOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, parking.entries, 1)
	assert.Contains(t, *parking.entries[0].ErrorMessage, documentsTopic)
}

func TestNewRelayNamesMissingDependencies(t *testing.T) {
	_, err := NewRelay(RelayDeps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry")
}

func TestPacerBacksOffToCeiling(t *testing.T) {
	p := newPacer(100*time.Millisecond, 300*time.Millisecond)
	assert.GreaterOrEqual(t, p.failed(), 200*time.Millisecond)
	assert.GreaterOrEqual(t, p.failed(), 300*time.Millisecond)
	assert.Less(t, p.failed(), 550*time.Millisecond)
	wait := p.reset()
	assert.GreaterOrEqual(t, wait, 100*time.Millisecond)
	assert.Less(t, wait, 350*time.Millisecond)
}

func newTestRelay(t *testing.T, store outboxStore, parking parkingStore, resolver eventResolver, pub publisher, cfg config.OutboxConfig) *Relay {
	t.Helper()
	relay, err := NewRelay(RelayDeps{
		Outbox:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         stubTx{},
		PubSub:     stubTopics{},
		Events:     store,
		Parked:     parking,
		Registry:   resolver,
		Publishers: func(string) publisher { return pub },
		Metrics:    metrics.NewOutboxMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return relay
}

func documentRow(t *testing.T, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	t.Helper()
	id := uuid.New()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"documentId":"x"}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            id,
		EventType:     eventType,
		AggregateType: enums.AggregateDocument,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

type stubResolver struct {
	payload any
	err     error
}

func resolverFor(payload any) *stubResolver {
	return &stubResolver{payload: payload}
}

func (s *stubResolver) Resolve(row models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{EventType: row.EventType, AggregateType: row.AggregateType, Topic: documentsTopic},
		Envelope:   outbox.PayloadEnvelope{Version: 1, EventID: row.ID.String(), OccurredAt: row.CreatedAt},
		Payload:    s.payload,
	}, nil
}

type stubOutbox struct {
	rows      []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (s *stubOutbox) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return s.rows, nil
}

func (s *stubOutbox) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubOutbox) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	s.failed = append(s.failed, id)
	return nil
}

func (s *stubOutbox) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	s.terminal = append(s.terminal, id)
	return nil
}

type stubParking struct {
	entries []models.OutboxDLQ
}

func (s *stubParking) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubTx struct{}

func (stubTx) Ping(context.Context) error { return nil }

func (stubTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type stubTopics struct{}

func (stubTopics) Ping(context.Context) error { return nil }

func (stubTopics) Publisher(string) *gcppubsub.Publisher { return nil }

type stubPublisher struct {
	errs []error
	sent []*gcppubsub.Message
}

func (s *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	s.sent = append(s.sent, msg)
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	return stubResult{err: err}
}

type stubResult struct{ err error }

func (r stubResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}
