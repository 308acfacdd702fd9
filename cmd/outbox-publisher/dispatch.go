package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/enums"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/registry"
)

type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictPark
)

// delivery is what happened to one row; settle turns it into row updates.
type delivery struct {
	verdict verdict
	reason  enums.OutboxDLQErrorReason
	topic   string
	eventID string
	err     error
}

func (r *Relay) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	resolved, err := r.deps.Registry.Resolve(row)
	if err != nil {
		return delivery{verdict: verdictPark, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}
	d := delivery{topic: resolved.Descriptor.Topic, eventID: resolved.Envelope.EventID}

	err = r.publish(ctx, row, resolved)
	var permanent registry.NonRetryableError
	switch {
	case err == nil:
		d.verdict = verdictPublished
	case errors.As(err, &permanent):
		d.verdict, d.reason, d.err = verdictPark, enums.OutboxDLQReasonNonRetryable, err
	case row.AttemptCount+1 >= r.maxAttempts:
		d.verdict, d.reason = verdictPark, enums.OutboxDLQReasonMaxAttempts
		d.err = fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err)
	default:
		d.verdict, d.err = verdictRetry, err
	}
	return d
}

func (r *Relay) publish(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	pub := r.deps.Publishers(resolved.Descriptor.Topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("%w %q", errNoPublisher, resolved.Descriptor.Topic))
	}

	ctx, cancel := context.WithTimeout(ctx, r.publishWait)
	defer cancel()
	res := pub.Publish(ctx, &gcppubsub.Message{
		Data:       row.Payload,
		Attributes: messageAttributes(row, resolved),
	})
	if res == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publish to %q returned no result", resolved.Descriptor.Topic))
	}
	_, err := res.Get(ctx)
	return err
}

// messageAttributes lets subscribers filter on event and document without
// decoding the body.
func messageAttributes(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]string {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(row.EventType),
		"aggregate_type": string(row.AggregateType),
		"aggregate_id":   row.AggregateID.String(),
		"schema_version": strconv.Itoa(resolved.Envelope.Version),
		"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if row.AggregateType == enums.AggregateDocument {
		attrs["document_id"] = row.AggregateID.String()
	}
	return attrs
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	logg := r.deps.Logger
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	if d.eventID != "" {
		fields["event_id"] = d.eventID
	}
	lctx := logg.WithFields(ctx, fields)

	switch d.verdict {
	case verdictPublished:
		if err := r.deps.Events.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", row.ID, err)
		}
		r.deps.Metrics.IncPublished(string(row.EventType))
		logg.Info(lctx, "outbox event published")
	case verdictRetry:
		if err := r.deps.Events.MarkFailedTx(tx, row.ID, d.err); err != nil {
			return fmt.Errorf("mark %s failed: %w", row.ID, err)
		}
		r.deps.Metrics.IncFailed(string(row.EventType))
		logg.Warn(logg.WithField(lctx, "error", d.err.Error()), "outbox publish failed, will retry")
	case verdictPark:
		msg := d.err.Error()
		if err := r.deps.Parked.InsertTx(tx, models.OutboxDLQ{
			EventID:       row.ID,
			EventType:     row.EventType,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			Payload:       row.Payload,
			ErrorReason:   d.reason,
			ErrorMessage:  &msg,
			AttemptCount:  row.AttemptCount,
			FailedAt:      time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("park %s: %w", row.ID, err)
		}
		if err := r.deps.Events.MarkTerminalTx(tx, row.ID, d.err, r.maxAttempts); err != nil {
			return fmt.Errorf("mark %s terminal: %w", row.ID, err)
		}
		r.deps.Metrics.IncParked(string(d.reason))
		logg.Warn(logg.WithFields(lctx, map[string]any{"error": msg, "error_reason": d.reason}), "outbox event parked")
	}
	return nil
}
