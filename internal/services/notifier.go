// Package services – Notifier
//
// This file implements outbound notification delivery. The notifier drains
// the event channel produced by CheckService concurrently with the run,
// sending one message per event and pacing sends with a token-bucket
// limiter so the chat transport's rate limits are respected.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/metrics"
)

// Messenger is the chat transport contract required by the Notifier.
type Messenger interface {
	// SendEvent delivers one notification for a pipeline event.
	SendEvent(ctx context.Context, ev domain.Event) error

	// SendDelivery delivers one notification for a stored delivery record
	// (used by resend).
	SendDelivery(ctx context.Context, userID int64, d domain.Delivery) error
}

// NotifyStore defines the persistence contract required by the Notifier.
type NotifyStore interface {
	ListUnnotified(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Delivery, error)
	MarkNotified(ctx context.Context, db *gorm.DB, ids []string) error
}

// Notifier sends pipeline notifications over a chat transport.
type Notifier struct {
	DB        *gorm.DB
	Store     NotifyStore
	Messenger Messenger

	// Limiter paces outbound sends. Nil means unpaced.
	Limiter *rate.Limiter

	// DrainTimeout bounds how long Drain waits for stragglers after the
	// run's context is cancelled.
	DrainTimeout time.Duration

	Log zerolog.Logger
}

// NewNotifier builds a Notifier with the given send delay between messages.
func NewNotifier(db *gorm.DB, store NotifyStore, m Messenger, sendDelay time.Duration, log zerolog.Logger) *Notifier {
	var lim *rate.Limiter
	if sendDelay > 0 {
		lim = rate.NewLimiter(rate.Every(sendDelay), 1)
	}
	return &Notifier{
		DB:           db,
		Store:        store,
		Messenger:    m,
		Limiter:      lim,
		DrainTimeout: 5 * time.Second,
		Log:          log,
	}
}

// Drain consumes events until the channel is closed. When ctx is cancelled
// it keeps draining for DrainTimeout so messages already emitted by the
// pipeline still go out, then gives up. A failed send is logged and counted;
// it never stops the drain.
func (n *Notifier) Drain(ctx context.Context, events <-chan domain.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			n.send(ctx, ev)
		case <-ctx.Done():
			n.drainRemainder(events)
			return
		}
	}
}

// drainRemainder gives already-queued events a bounded window to go out
// after cancellation.
func (n *Notifier) drainRemainder(events <-chan domain.Event) {
	deadline := time.After(n.DrainTimeout)
	ctx := context.Background()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			n.send(ctx, ev)
		case <-deadline:
			return
		}
	}
}

func (n *Notifier) send(ctx context.Context, ev domain.Event) {
	if n.Limiter != nil {
		if err := n.Limiter.Wait(ctx); err != nil {
			// Cancelled mid-wait: still attempt the send unpaced during
			// the drain window.
			_ = err
		}
	}
	if err := n.Messenger.SendEvent(ctx, ev); err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		n.Log.Warn().Err(err).Int64("user", ev.UserID).Str("kind", string(ev.Kind)).Msg("notification send failed")
		return
	}
	metrics.NotificationsSent.WithLabelValues("ok").Inc()
}

// ResendPending sends every unnotified delivery record for userID and marks
// ALL of them notified, including those whose send failed. At-most-once is
// the accepted contract; a crash mid-resend can lose messages but never
// duplicates them forever.
func (n *Notifier) ResendPending(ctx context.Context, userID int64) (int, error) {
	pending, err := n.Store.ListUnnotified(ctx, n.DB, userID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// Every pending record is marked notified below, whether or not its
	// send succeeds. See the doc comment.
	ids := make([]string, 0, len(pending))
	for _, d := range pending {
		ids = append(ids, d.ID)
	}

	for _, d := range pending {
		if n.Limiter != nil {
			if err := n.Limiter.Wait(ctx); err != nil {
				break
			}
		}
		if err := n.Messenger.SendDelivery(ctx, userID, d); err != nil {
			metrics.NotificationsSent.WithLabelValues("error").Inc()
			n.Log.Warn().Err(err).Int64("user", userID).Str("delivery", d.ID).Msg("resend failed")
			continue
		}
		metrics.NotificationsSent.WithLabelValues("ok").Inc()
	}

	if err := n.Store.MarkNotified(ctx, n.DB, ids); err != nil {
		return len(ids), err
	}
	return len(ids), nil
}
