package pubsub

import "context"

// PubSubClient publishes ingestion events and decodes received payloads.
type PubSubClient interface {
	SendMessage(ctx context.Context, topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
	Close() error
}
