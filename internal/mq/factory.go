package mq

import (
	"context"

	"github.com/userdesk/apiserver/config"
)

// NewFromConfig selects and constructs the broker backend named by the
// config. Unknown backends (including "none") fall back to the noop
// backend so the API works without a running message queue.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case "rabbitmq":
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "pubsub":
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return New(NewNoopBackend()), nil
	}
}
