package messaging

import (
	"context"
)

// Broker is the outbound side of the message bus. Consumers (the SMS gateway)
// live in other processes; this core only publishes.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}
