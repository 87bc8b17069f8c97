package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/mocamara/se-atlas/internal/invalidation"
)

// Store is the snapshot side the consumer drives.
type Store interface {
	Invalidate(ctx context.Context, kinds ...string)
}

// ReloadFunc refetches one dataset after its snapshot was dropped.
type ReloadFunc func(ctx context.Context, dataset string) error

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	store  Store
	reload ReloadFunc
	dedupe *eventDedupe
}

func New(cfg Config, logger *slog.Logger, store Store, reload ReloadFunc) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		store:  store,
		reload: reload,
		dedupe: newEventDedupe(cfg.DedupeSize),
	}
}

// Start consumes invalidation events until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("kafkaconsumer: missing snapshot store")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
			}
		}
	}
}

// ProcessOne applies a single event. Malformed events are logged and
// skipped rather than blocking the partition.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Warn("skipping malformed invalidation event", "err", err, "offset", msg.Offset)
		return nil
	}
	if err := ev.Validate(); err != nil {
		c.logger.Warn("skipping invalid invalidation event", "err", err, "offset", msg.Offset)
		return nil
	}
	if !c.dedupe.shouldApply(ev.Key()) {
		return nil
	}

	c.store.Invalidate(ctx, ev.Dataset)
	c.logger.Info("snapshot invalidated by event", "dataset", ev.Dataset, "op", ev.Op)

	if ev.Op == "reload" && c.reload != nil {
		if err := c.reload(ctx, ev.Dataset); err != nil {
			// next interaction retries; the snapshot is already dropped
			c.logger.Error("event-driven reload failed", "dataset", ev.Dataset, "err", err)
		}
	}
	return nil
}
