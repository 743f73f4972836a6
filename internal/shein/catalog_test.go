package shein

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

const listingPayload = `{
	"products": [
		{"code": "460216178001", "name": "Oversized Tee",
		 "price": {"value": 599},
		 "fnlColorVariantData": {"brandName": "SHEIN", "outfitPictureURL": "https://img.example/1.jpg"}},
		{"code": "", "name": "no code, skipped"},
		{"code": "460216178002", "name": "Cargo Pants", "price": {"value": 1299}}
	],
	"pagination": {"totalNumberOfResults": 3, "numberOfPages": 1, "currentPage": 0}
}`

func TestFetchProducts_MapsListing(t *testing.T) {
	var gotPath, gotCookie, gotTenant string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("cookie")
		gotTenant = r.Header.Get("x-tenant-id")
		if r.URL.Query().Get("pageSize") != "60" {
			t.Errorf("pageSize = %q", r.URL.Query().Get("pageSize"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingPayload))
	})

	got := c.FetchProducts(context.Background(), srv.URL+"/c/sverse-5849", "")
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if gotPath != "/api/category/sverse-5849" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotCookie != baseCookies {
		t.Fatalf("anonymous fetch must send base cookies, got %q", gotCookie)
	}
	if gotTenant != "SHEIN" {
		t.Fatalf("missing tenant header")
	}

	p := got[0]
	if p.Code != "460216178001" || p.Name != "SHEIN Oversized Tee" || p.Price != 599 {
		t.Fatalf("unexpected product mapping: %+v", p)
	}
	if p.URL != srv.URL+"/p/460216178001" {
		t.Fatalf("unexpected product url: %q", p.URL)
	}
	if p.ImageURL != "https://img.example/1.jpg" {
		t.Fatalf("unexpected image url: %q", p.ImageURL)
	}
}

func TestFetchProducts_UserCookiesWin(t *testing.T) {
	var gotCookie string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("cookie")
		_, _ = w.Write([]byte(`{"products": []}`))
	})

	got := c.FetchProducts(context.Background(), srv.URL+"/c/sverse-5849", "A=tok; LS=LOGGED_IN")
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %d", len(got))
	}
	if gotCookie != "A=tok; LS=LOGGED_IN" {
		t.Fatalf("user cookies must be sent verbatim, got %q", gotCookie)
	}
}

func TestFetchProducts_SoftFailures(t *testing.T) {
	t.Run("access denied page", func(t *testing.T) {
		c, srv := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("<html>Access Denied</html>"))
		})
		if got := c.FetchProducts(context.Background(), srv.URL+"/c/sverse-5849", ""); len(got) != 0 {
			t.Fatalf("expected empty slice on denial, got %d", len(got))
		}
	})

	t.Run("non json body", func(t *testing.T) {
		c, srv := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json at all"))
		})
		if got := c.FetchProducts(context.Background(), srv.URL+"/c/sverse-5849", ""); len(got) != 0 {
			t.Fatalf("expected empty slice on garbage, got %d", len(got))
		}
	})

	t.Run("malformed filter url", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected for malformed url")
		})
		if got := c.FetchProducts(context.Background(), "https://host", ""); len(got) != 0 {
			t.Fatalf("expected empty slice, got %d", len(got))
		}
	})

	t.Run("server unreachable", func(t *testing.T) {
		c, err := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		if got := c.FetchProducts(context.Background(), "http://127.0.0.1:1/c/sverse-5849", ""); len(got) != 0 {
			t.Fatalf("expected empty slice, got %d", len(got))
		}
	})
}
