package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// fakeMessenger records sends and can fail selectively.
type fakeMessenger struct {
	mu         sync.Mutex
	events     []domain.Event
	deliveries []domain.Delivery
	failIDs    map[string]bool
}

func (f *fakeMessenger) SendEvent(_ context.Context, ev domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeMessenger) SendDelivery(_ context.Context, _ int64, d domain.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[d.ID] {
		return errors.New("telegram down")
	}
	f.deliveries = append(f.deliveries, d)
	return nil
}

// fakeNotifyStore is an in-memory NotifyStore.
type fakeNotifyStore struct {
	pending  []domain.Delivery
	notified []string
	listErr  error
}

func (f *fakeNotifyStore) ListUnnotified(_ context.Context, _ *gorm.DB, _ int64) ([]domain.Delivery, error) {
	return f.pending, f.listErr
}

func (f *fakeNotifyStore) MarkNotified(_ context.Context, _ *gorm.DB, ids []string) error {
	f.notified = append(f.notified, ids...)
	return nil
}

func TestDrain_SendsUntilClose(t *testing.T) {
	m := &fakeMessenger{}
	n := NewNotifier(nil, &fakeNotifyStore{}, m, 0, zerolog.Nop())

	events := make(chan domain.Event, 4)
	events <- domain.Event{Kind: domain.EventNewProduct, UserID: 1}
	events <- domain.Event{Kind: domain.EventDelivery, UserID: 1, Pincode: "110001"}
	close(events)

	n.Drain(context.Background(), events)

	if len(m.events) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(m.events))
	}
	if m.events[1].Pincode != "110001" {
		t.Fatalf("unexpected event order: %+v", m.events)
	}
}

func TestDrain_CancelledContextDrainsRemainder(t *testing.T) {
	m := &fakeMessenger{}
	n := NewNotifier(nil, &fakeNotifyStore{}, m, 0, zerolog.Nop())
	n.DrainTimeout = 200 * time.Millisecond

	events := make(chan domain.Event, 4)
	events <- domain.Event{Kind: domain.EventDelivery, UserID: 1}
	close(events)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Drain(ctx, events)

	if len(m.events) != 1 {
		t.Fatalf("queued event must still go out after cancel, got %d", len(m.events))
	}
}

func TestResendPending_MarksAllEvenWhenSendFails(t *testing.T) {
	store := &fakeNotifyStore{pending: []domain.Delivery{
		{ID: "d1", UserID: 1, ProductURL: "p1", Pincode: "110001"},
		{ID: "d2", UserID: 1, ProductURL: "p1", Pincode: "400001"},
		{ID: "d3", UserID: 1, ProductURL: "p2", Pincode: "110001"},
	}}
	m := &fakeMessenger{failIDs: map[string]bool{"d2": true}}
	n := NewNotifier(nil, store, m, 0, zerolog.Nop())

	sent, err := n.ResendPending(context.Background(), 1)
	if err != nil {
		t.Fatalf("ResendPending: %v", err)
	}
	if sent != 3 {
		t.Fatalf("expected 3 processed, got %d", sent)
	}
	if len(m.deliveries) != 2 {
		t.Fatalf("expected 2 successful sends, got %d", len(m.deliveries))
	}
	// The failed one is marked too.
	if len(store.notified) != 3 {
		t.Fatalf("all pending must be marked notified, got %v", store.notified)
	}
}

func TestResendPending_EmptyIsNoop(t *testing.T) {
	store := &fakeNotifyStore{}
	n := NewNotifier(nil, store, &fakeMessenger{}, 0, zerolog.Nop())

	sent, err := n.ResendPending(context.Background(), 1)
	if err != nil || sent != 0 {
		t.Fatalf("expected clean no-op, got sent=%d err=%v", sent, err)
	}
	if len(store.notified) != 0 {
		t.Fatalf("nothing must be marked: %v", store.notified)
	}
}

func TestResendPending_ListErrorPropagates(t *testing.T) {
	store := &fakeNotifyStore{listErr: errors.New("db locked")}
	n := NewNotifier(nil, store, &fakeMessenger{}, 0, zerolog.Nop())

	if _, err := n.ResendPending(context.Background(), 1); err == nil {
		t.Fatalf("expected list error to propagate")
	}
}

func TestNewNotifier_PacingConfigured(t *testing.T) {
	n := NewNotifier(nil, &fakeNotifyStore{}, &fakeMessenger{}, 300*time.Millisecond, zerolog.Nop())
	if n.Limiter == nil {
		t.Fatalf("send delay must configure a limiter")
	}
	n = NewNotifier(nil, &fakeNotifyStore{}, &fakeMessenger{}, 0, zerolog.Nop())
	if n.Limiter != nil {
		t.Fatalf("zero delay must leave sends unpaced")
	}
}
