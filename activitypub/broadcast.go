package activitypub

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DeliveryFailure records a single failed broadcast delivery.
type DeliveryFailure struct {
	Recipient string
	Err       error
}

// DeliveryReport summarizes one broadcast: how many followers were reached
// and which deliveries failed.
type DeliveryReport struct {
	Delivered int
	Failures  []DeliveryFailure
}

// Broadcaster fans an activity out to every follower. Broadcast delivery is
// best-effort: the triggering request never waits on it and per-recipient
// failures are collected into a report and logged, not returned.
type Broadcaster struct {
	signer Sender
	store  Store
	limit  int
}

// NewBroadcaster creates a Broadcaster with a bounded number of concurrent
// deliveries per broadcast.
func NewBroadcaster(signer Sender, store Store) *Broadcaster {
	return &Broadcaster{signer: signer, store: store, limit: 5}
}

// Broadcast sends the activity to every follower's inbox, each copy cc'd to
// its recipient. It returns immediately; deliveries run detached from any
// request context.
func (b *Broadcaster) Broadcast(activity map[string]any) {
	go func() {
		report := b.deliver(context.Background(), activity)
		if report == nil {
			return
		}

		log.Printf("Outbox: Broadcast delivered to %d followers, %d failures", report.Delivered, len(report.Failures))
		for _, failure := range report.Failures {
			log.Printf("Outbox: Broadcast to %s failed: %v", failure.Recipient, failure.Err)
		}
	}()
}

// deliver runs the fan-out synchronously and returns the report. Split out of
// Broadcast so the fan-out itself is testable.
func (b *Broadcaster) deliver(ctx context.Context, activity map[string]any) *DeliveryReport {
	followers, err := b.store.ReadAllFollowers()
	if err != nil {
		log.Printf("Outbox: Failed to list followers for broadcast: %v", err)
		return nil
	}
	if len(followers) == 0 {
		return &DeliveryReport{}
	}

	var (
		mu     sync.Mutex
		report DeliveryReport
	)

	var g errgroup.Group
	g.SetLimit(b.limit)

	for _, follower := range followers {
		recipient := follower.Actor
		g.Go(func() error {
			message := make(map[string]any, len(activity)+1)
			for k, v := range activity {
				message[k] = v
			}
			message["cc"] = []string{recipient}

			err := b.signer.Send(ctx, recipient, message)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, DeliveryFailure{Recipient: recipient, Err: err})
			} else {
				report.Delivered++
			}
			return nil
		})
	}

	g.Wait()
	return &report
}
