package kafkaconsumer

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	lru "github.com/hashicorp/golang-lru/v2"
)

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(s sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(s sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("claim context done: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}

// eventDedupe suppresses redelivered events across rebalances.
type eventDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, struct{}]
}

func newEventDedupe(size int) *eventDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, struct{}](size)
	return &eventDedupe{lru: c}
}

// returns true the first time a key is seen
func (d *eventDedupe) shouldApply(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, seen := d.lru.Get(key); seen {
		return false
	}
	d.lru.Add(key, struct{}{})
	return true
}
