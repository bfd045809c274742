package interfaces

import "context"

// PubSubPublisherInterface publishes batch-completion notifications.
type PubSubPublisherInterface interface {
	Publish(ctx context.Context, topic string, msg []byte) error
	Close() error
}

// PubSubPublisherClientInterface wraps the SDK client for publishing.
type PubSubPublisherClientInterface interface {
	Publisher(topic string) PublisherInterface
	Close() error
}

// PublisherInterface is a single-topic publisher.
type PublisherInterface interface {
	Publish(ctx context.Context, msg []byte) error
}
