// Package worker consumes queued notifications and delivers them to a
// local sink.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"anjo/internal/amqp"
	"anjo/internal/cache"
	"anjo/internal/log"
	"anjo/internal/notify"
)

// dedupTTL is how long a delivered id is remembered. Redeliveries after a
// nack normally arrive within seconds.
const dedupTTL = 10 * time.Minute

// NotificationWorker delivers notification messages to a sink, dropping
// redeliveries of messages it already handled.
type NotificationWorker struct {
	sink      notify.Emitter
	seen      *cache.LRUCache[struct{}]
	logger    *log.Logger
	delivered int64
	skipped   int64
}

func NewNotificationWorker(sink notify.Emitter, logger *log.Logger) *NotificationWorker {
	return &NotificationWorker{
		sink:   sink,
		seen:   cache.NewLRUCache[struct{}](4096, dedupTTL),
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Seen exposes the dedup cache so a cache.Manager can sweep it.
func (w *NotificationWorker) Seen() *cache.LRUCache[struct{}] {
	return w.seen
}

// Handle is an amqp.Handler. A sink failure is returned so the message
// is requeued.
func (w *NotificationWorker) Handle(ctx context.Context, msg *amqp.NotificationMessage) error {
	if _, dup := w.seen.Get(msg.ID); dup {
		atomic.AddInt64(&w.skipped, 1)
		w.logger.DebugContext(ctx, "Duplicate notification skipped", "notification_id", msg.ID)
		return nil
	}

	n := notify.FromMessage(msg)
	if err := w.sink.Emit(ctx, n); err != nil {
		return fmt.Errorf("deliver notification %s: %w", msg.ID, err)
	}
	w.seen.Set(msg.ID, struct{}{})
	atomic.AddInt64(&w.delivered, 1)

	w.logger.InfoContext(ctx, "Notification delivered",
		log.FieldOwner, msg.Owner,
		"notification_id", msg.ID,
		"lag_ms", time.Since(msg.Timestamp).Milliseconds())
	return nil
}

// Stats returns the delivered and skipped counters.
func (w *NotificationWorker) Stats() (delivered, skipped int64) {
	return atomic.LoadInt64(&w.delivered), atomic.LoadInt64(&w.skipped)
}
