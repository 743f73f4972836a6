package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// fakeStore scripts the delivery listing slice.
type fakeStore struct {
	total    int64
	items    []domain.Delivery
	countErr error
	listErr  error

	gotUser             int64
	gotOffset, gotLimit int
}

func (f *fakeStore) CountDeliveries(_ context.Context, _ *gorm.DB, userID int64) (int64, error) {
	f.gotUser = userID
	return f.total, f.countErr
}

func (f *fakeStore) ListDeliveriesPage(_ context.Context, _ *gorm.DB, userID int64, offset, limit int) ([]domain.Delivery, error) {
	f.gotUser = userID
	f.gotOffset, f.gotLimit = offset, limit
	return f.items, f.listErr
}

func newTestRouter(store DeliveryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, store, time.Now().Add(-90*time.Second), 2, 30*time.Minute, nil)
	r := gin.New()
	r.GET("/status", h.Status)
	r.GET("/users/:id/deliveries", h.ListDeliveries)
	return r
}

func TestListDeliveries_Page(t *testing.T) {
	store := &fakeStore{
		total: 42,
		items: []domain.Delivery{
			{ID: "d1", UserID: 7, ProductURL: "https://a/p/1", Pincode: "110001"},
			{ID: "d2", UserID: 7, ProductURL: "https://a/p/2", Pincode: "110001"},
		},
	}
	r := newTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/7/deliveries?page=3&per_page=10", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var page DeliveryPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	if page.Total != 42 || page.Page != 3 || page.PerPage != 10 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if store.gotUser != 7 || store.gotOffset != 20 || store.gotLimit != 10 {
		t.Fatalf("store called with user=%d offset=%d limit=%d", store.gotUser, store.gotOffset, store.gotLimit)
	}
}

func TestListDeliveries_EmptyIsArrayNotNull(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/7/deliveries", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(raw["items"]) != "[]" {
		t.Fatalf("items must serialize as [], got %s", raw["items"])
	}
}

func TestListDeliveries_BadUserID(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/abc/deliveries", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestListDeliveries_StoreErrors(t *testing.T) {
	for name, store := range map[string]*fakeStore{
		"count": {countErr: errors.New("db locked")},
		"list":  {listErr: errors.New("db locked")},
	} {
		t.Run(name, func(t *testing.T) {
			r := newTestRouter(store)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/users/7/deliveries", nil)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status=%d", w.Code)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	r := newTestRouter(&fakeStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Status != "ok" || resp.Users != 2 || resp.CheckInterval != "30m0s" {
		t.Fatalf("unexpected status: %+v", resp)
	}
	if resp.NextCheck != "" {
		t.Fatalf("next_check must be omitted without a scheduler: %+v", resp)
	}
	if resp.Uptime == "" {
		t.Fatalf("uptime missing: %+v", resp)
	}
}

func TestStatus_WithScheduler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	next := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	h := New(nil, &fakeStore{}, time.Now(), 1, time.Hour, func() time.Time { return next })
	r := gin.New()
	r.GET("/status", h.Status)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.NextCheck != "2026-05-01T12:00:00Z" {
		t.Fatalf("unexpected next_check: %q", resp.NextCheck)
	}
}
