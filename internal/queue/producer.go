package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Task types consumed by cmd/worker.
const (
	TaskEmailConfirm   = "email.confirm"
	TaskEmailMagicLink = "email.magiclink"
	TaskEmailRecovery  = "email.recovery"
	TaskCleanup        = "cleanup"
)

// Producer appends tasks to the worker stream.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, taskType string, values map[string]any) error {
	if p.client == nil {
		return nil
	}

	payload := map[string]any{"type": taskType}
	for k, v := range values {
		payload[k] = v
	}

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: payload,
	}).Result(); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
