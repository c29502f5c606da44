package event

import (
	"context"
	"fmt"
	"time"

	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
)

// InvocationEvent announces that one item finished, successfully or not.
type InvocationEvent struct {
	RunID                string    `json:"run_id"`
	InvocationID         string    `json:"invocation_id"`
	Index                int       `json:"index"`
	Operation            string    `json:"operation"`
	Identifier           string    `json:"identifier,omitempty"`
	InvocationIdentifier string    `json:"invocation_identifier,omitempty"`
	Status               string    `json:"status"`
	Error                string    `json:"error,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

type EventBus interface {
	Publish(ctx context.Context, topic string, evt *InvocationEvent) error
	Subscribe(ctx context.Context, topic string, handler func(*InvocationEvent)) error
	Close() error
}

// NewInProcEventBus returns a new in-memory event bus. Used when event config driver=="memory" or omitted.
func NewInProcEventBus() *WatermillEventBus {
	return NewWatermillInMemBus()
}

// NewEventBusFromConfig returns an EventBus based on config. Supported: memory (default), nats (with url).
func NewEventBusFromConfig(cfg *config.EventConfig) (EventBus, error) {
	if cfg == nil || cfg.Driver == "" || cfg.Driver == constants.EventDriverMemory {
		return NewWatermillInMemBus(), nil
	}
	switch cfg.Driver {
	case constants.EventDriverNATS:
		if cfg.URL == "" {
			return nil, fmt.Errorf("NATS driver requires url")
		}
		return NewWatermillNATSBus(constants.NATSClusterID, constants.NATSClientID, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported event bus driver: %s", cfg.Driver)
	}
}
