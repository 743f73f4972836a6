package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/averma/versewatch/internal/domain"
)

func TestAddURL_Success_DuplicateAndOtherUser(t *testing.T) {
	db := newRepoDB(t, &domain.MonitorURL{})
	ctx := context.Background()

	u, err := AddURL(ctx, db, 1, "https://example.in/c/men-tshirts")
	if err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if u.ID == 0 || u.UserID != 1 {
		t.Fatalf("unexpected MonitorURL: %+v", u)
	}

	if _, err := AddURL(ctx, db, 1, "https://example.in/c/men-tshirts"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same URL for a different user is fine.
	if _, err := AddURL(ctx, db, 2, "https://example.in/c/men-tshirts"); err != nil {
		t.Fatalf("AddURL other user: %v", err)
	}
}

func TestListURLs_InsertionOrder(t *testing.T) {
	db := newRepoDB(t, &domain.MonitorURL{})
	ctx := context.Background()

	// Seed with known CreatedAt so order is deterministic.
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, raw := range []string{"https://example.in/c/a", "https://example.in/c/b", "https://example.in/c/c"} {
		rec := &domain.MonitorURL{UserID: 1, URL: raw, CreatedAt: t1.Add(time.Duration(i) * time.Hour)}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// Noise from another user must be filtered out.
	if err := db.Create(&domain.MonitorURL{UserID: 2, URL: "https://example.in/c/x", CreatedAt: t1}).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	got, err := ListURLs(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListURLs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 urls, got %d", len(got))
	}
	for i, want := range []string{"https://example.in/c/a", "https://example.in/c/b", "https://example.in/c/c"} {
		if got[i].URL != want {
			t.Fatalf("order mismatch at %d: got %q want %q", i, got[i].URL, want)
		}
	}
}

func TestRemoveURLByIndex(t *testing.T) {
	db := newRepoDB(t, &domain.MonitorURL{})
	ctx := context.Background()

	for _, raw := range []string{"https://example.in/c/a", "https://example.in/c/b"} {
		if _, err := AddURL(ctx, db, 1, raw); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	for _, idx := range []int{0, 3, -1} {
		if _, err := RemoveURLByIndex(ctx, db, 1, idx); !errors.Is(err, ErrNotFound) {
			t.Fatalf("idx=%d: expected ErrNotFound, got %v", idx, err)
		}
	}

	removed, err := RemoveURLByIndex(ctx, db, 1, 1)
	if err != nil {
		t.Fatalf("RemoveURLByIndex: %v", err)
	}
	if removed != "https://example.in/c/a" {
		t.Fatalf("removed wrong url: %q", removed)
	}

	rest, err := ListURLs(ctx, db, 1)
	if err != nil || len(rest) != 1 || rest[0].URL != "https://example.in/c/b" {
		t.Fatalf("unexpected remainder: err=%v rest=%+v", err, rest)
	}
}
