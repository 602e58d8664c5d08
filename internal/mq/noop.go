package mq

import "context"

// NoopBackend discards everything. It is the default when no broker is
// configured so the API works without a running message queue.
type NoopBackend struct{}

func NewNoopBackend() *NoopBackend {
	return &NoopBackend{}
}

func (n *NoopBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return "", nil
}

func (n *NoopBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n *NoopBackend) Close() error {
	return nil
}
