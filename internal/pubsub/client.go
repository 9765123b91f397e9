package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// New creates a Pub/Sub publisher for projectID. An empty projectID yields a
// client that only logs events.
func New(ctx context.Context, projectID string) (PubSubClient, error) {
	if projectID == "" {
		log.Info("No GCP project configured, ingestion events will not be published")
		return noop{}, nil
	}
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return &client{client: pubSubC}, nil
}

func (c *client) SendMessage(ctx context.Context, topic EventType, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	message := &pubsub.Message{
		Data:       msgpackData,
		Attributes: map[string]string{"event": string(topic)},
	}
	result := c.client.Topic(string(topic)).Publish(ctx, message)
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return err
	}
	log.Info("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (c *client) Close() error {
	return c.client.Close()
}

func (noop) SendMessage(_ context.Context, topic EventType, data any) error {
	if _, err := msgpack.Marshal(data); err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	log.Debug("Skipping event publish", "topic", topic)
	return nil
}

func (noop) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (noop) Close() error {
	return nil
}

func decode(data []byte, returnValue any) error {
	// Unmarshal the MessagePack data into the provided pointer struct
	if err := msgpack.Unmarshal(data, returnValue); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return err
	}
	return nil
}
