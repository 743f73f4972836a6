package shein

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/averma/versewatch/internal/domain"
)

func TestCheckDeliverable_Verdicts(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.TriState
	}{
		{"servicability yes", `{"servicability": true, "productDetails": [{"eddUpper": "2025-06-10"}]}`, domain.Yes},
		{"servicability no", `{"servicability": false}`, domain.No},
		{"serviceable yes", `{"serviceable": true}`, domain.Yes},
		{"serviceable no", `{"serviceable": false}`, domain.No},
		{"neither field", `{"someOtherField": 1}`, domain.Unknown},
		{"not json", `Access Denied`, domain.Unknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cl, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/edd/checkDeliveryDetails" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("productCode") != "460216178001" || q.Get("postalCode") != "110001" ||
					q.Get("quantity") != "1" || q.Get("IsExchange") != "false" {
					t.Errorf("unexpected query %q", r.URL.RawQuery)
				}
				_, _ = w.Write([]byte(c.body))
			})
			got := cl.CheckDeliverable(context.Background(), "460216178001", "110001", "")
			if got != c.want {
				t.Fatalf("CheckDeliverable = %v; want %v", got, c.want)
			}
		})
	}
}

func TestCheckDeliverable_TransportFailureIsUnknown(t *testing.T) {
	cl, err := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := cl.CheckDeliverable(context.Background(), "1", "110001", ""); got != domain.Unknown {
		t.Fatalf("expected Unknown on transport failure, got %v", got)
	}
}

func TestCheckAvailability(t *testing.T) {
	t.Run("no domestic route", func(t *testing.T) {
		cl, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected without a domestic route")
		})
		if got := cl.CheckAvailability(context.Background(), "1", ""); got != domain.Unknown {
			t.Fatalf("expected Unknown without domestic route, got %v", got)
		}
	})

	run := func(t *testing.T, body string, status int) domain.TriState {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/cart/add" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		cl, err := NewClient(Options{BaseURL: srv.URL, DomesticDirect: true})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		return cl.CheckAvailability(context.Background(), "460216178001", "")
	}

	if got := run(t, `{"success": true, "cartId": "c-1"}`, http.StatusOK); got != domain.Yes {
		t.Fatalf("cart add accepted: got %v", got)
	}
	if got := run(t, `{"cartId": "c-1"}`, http.StatusOK); got != domain.Yes {
		t.Fatalf("cartId alone means available: got %v", got)
	}
	if got := run(t, `{"errors": [{"type": "outOfStock"}]}`, http.StatusBadRequest); got != domain.No {
		t.Fatalf("outOfStock means unavailable: got %v", got)
	}
	if got := run(t, `{"message": "Sold Out"}`, http.StatusBadRequest); got != domain.No {
		t.Fatalf("sold out means unavailable: got %v", got)
	}
	if got := run(t, "Access Denied", http.StatusForbidden); got != domain.Unknown {
		t.Fatalf("blocked probe is Unknown: got %v", got)
	}
	if got := run(t, `{"something": "else"}`, http.StatusOK); got != domain.Unknown {
		t.Fatalf("ambiguous body is Unknown: got %v", got)
	}
}
