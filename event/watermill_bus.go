package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/awantoch/portflow/utils"
	stan "github.com/nats-io/stan.go"
)

// WatermillEventBus satisfies our EventBus interface using Watermill.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	// shared is set when publisher and subscriber are the same pubsub.
	shared bool
}

var _ EventBus = (*WatermillEventBus)(nil)

// NewWatermillInMemBus returns a Watermill-based, in-memory bus.
func NewWatermillInMemBus() *WatermillEventBus {
	logger := watermill.NewStdLogger(false, false)
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 100}, logger)
	return &WatermillEventBus{publisher: ps, subscriber: ps, shared: true}
}

// NewWatermillNATSBus returns a NATS Streaming backed bus.
func NewWatermillNATSBus(clusterID, clientID, url string) (*WatermillEventBus, error) {
	logger := watermill.NewStdLogger(false, false)
	stanOptions := []stan.Option{stan.NatsURL(url)}
	pub, err := nats.NewStreamingPublisher(nats.StreamingPublisherConfig{
		ClusterID:   clusterID,
		ClientID:    clientID + "-pub",
		StanOptions: stanOptions,
		Marshaler:   nats.GobMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	sub, err := nats.NewStreamingSubscriber(nats.StreamingSubscriberConfig{
		ClusterID:      clusterID,
		ClientID:       clientID + "-sub",
		StanOptions:    stanOptions,
		Unmarshaler:    nats.GobMarshaler{},
		CloseTimeout:   30 * time.Second,
		AckWaitTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}
	return &WatermillEventBus{publisher: pub, subscriber: sub}, nil
}

// Publish sends evt as JSON with its run ID, operation and status as metadata.
func (b *WatermillEventBus) Publish(ctx context.Context, topic string, evt *InvocationEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("run_id", evt.RunID)
	msg.Metadata.Set("operation", evt.Operation)
	msg.Metadata.Set("status", evt.Status)
	msg.Metadata.Set("index", strconv.Itoa(evt.Index))
	msg.SetContext(ctx)
	return b.publisher.Publish(topic, msg)
}

// Subscribe delivers every decodable event on topic to handler until ctx ends.
// Undecodable messages are logged and acknowledged.
func (b *WatermillEventBus) Subscribe(ctx context.Context, topic string, handler func(*InvocationEvent)) error {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	go func() {
		for msg := range ch {
			var evt InvocationEvent
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				utils.Warn("dropping undecodable event on %s: %v", topic, err)
				msg.Ack()
				continue
			}
			handler(&evt)
			msg.Ack()
		}
	}()
	return nil
}

func (b *WatermillEventBus) Close() error {
	if b.shared {
		return b.publisher.Close()
	}
	return errors.Join(b.publisher.Close(), b.subscriber.Close())
}
