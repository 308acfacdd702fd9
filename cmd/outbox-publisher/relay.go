package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db/models"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/metrics"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox/registry"
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type topicSource interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type parkingStore interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type eventResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// RelayDeps wires the relay. Publishers defaults to pubsub-backed topics.
type RelayDeps struct {
	Outbox     config.OutboxConfig
	Logger     *logger.Logger
	DB         txRunner
	PubSub     topicSource
	Events     outboxStore
	Parked     parkingStore
	Registry   eventResolver
	Publishers func(topic string) publisher
	Metrics    *metrics.OutboxMetrics
}

// Relay drains outbox_events onto pubsub. Each batch runs in one
// transaction so rows locked by FetchUnpublishedForPublish stay invisible to
// other relay replicas until their outcome is written.
type Relay struct {
	deps        RelayDeps
	batchSize   int
	maxAttempts int
	idle        time.Duration
	publishWait time.Duration
}

func NewRelay(deps RelayDeps) (*Relay, error) {
	var missing []string
	for name, ok := range map[string]bool{
		"logger":   deps.Logger != nil,
		"db":       deps.DB != nil,
		"pubsub":   deps.PubSub != nil,
		"events":   deps.Events != nil,
		"parked":   deps.Parked != nil,
		"registry": deps.Registry != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("outbox relay: missing dependencies %v", missing)
	}
	if deps.Publishers == nil {
		deps.Publishers = pubsubPublishers(deps.PubSub)
	}
	return &Relay{
		deps:        deps,
		batchSize:   positiveOr(deps.Outbox.BatchSize, 50),
		maxAttempts: positiveOr(deps.Outbox.MaxAttempts, 10),
		idle:        time.Duration(positiveOr(deps.Outbox.PollIntervalMS, 500)) * time.Millisecond,
		publishWait: 15 * time.Second,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx ends. A full batch is followed immediately by the
// next one; an empty batch waits one poll interval, and a failed batch
// backs off exponentially up to 10s.
func (r *Relay) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": r.deps.DB.Ping,
		"pubsub":   r.deps.PubSub.Ping,
	} {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s not reachable: %w", name, err)
		}
	}

	p := newPacer(r.idle, 10*time.Second)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		handled, err := r.drainOnce(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.deps.Logger.Error(ctx, "outbox batch aborted", err)
			wait = p.failed()
		case handled > 0:
			p.reset()
			continue
		default:
			wait = p.reset()
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

// drainOnce handles a single batch and returns how many rows it touched.
func (r *Relay) drainOnce(ctx context.Context) (int, error) {
	handled := 0
	err := r.deps.DB.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.deps.Events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		for _, row := range rows {
			if err := r.settle(ctx, tx, row, r.deliver(ctx, row)); err != nil {
				return err
			}
			handled++
		}
		return nil
	})
	return handled, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var errNoPublisher = errors.New("no publisher for topic")
