package services

import "context"

// OutboxPublisherSvc delivers committed outbox events to the message bus.
type OutboxPublisherSvc interface {
	// PublishEvent attempts immediate delivery of a single committed event.
	// Failures are swallowed; the sweep redelivers later.
	PublishEvent(ctx context.Context, eventID string)

	// Sweep claims due unpublished events and delivers them. Returns how many
	// events were published.
	Sweep(ctx context.Context) (int, error)

	// Run loops Sweep on the configured interval until ctx is cancelled.
	Run(ctx context.Context)
}
