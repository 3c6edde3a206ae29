package events

import (
	"context"
	"log"
)

// LogPublisher writes events to the process log. Used when no broker is
// configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, key string, env Envelope) error {
	log.Printf("[events] %s key=%s id=%s payload=%s", env.EventType, key, env.EventID, env.Payload)
	return nil
}
