// Package shein implements a native HTTP client for the SHEIN India
// storefront APIs: catalog listings, OTP login, delivery eligibility, and
// the cart-based availability probe.
//
// The remote endpoints are undocumented and fronted by bot protection, so
// every call degrades softly: listing failures yield an empty slice and
// probe failures yield domain.Unknown. Callers never see transport errors.
package shein

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://www.sheinindia.in"

	userAgent = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Mobile Safari/537.36"

	// baseCookies is the anonymous cookie set sent when a user has not
	// logged in. The deviceId is a fixed, pre-registered device.
	baseCookies = "V=1; deviceId=R8RkVsXwi4j0zW82Wu8iK; LS=LOGGED_IN; customerType=Existing;"

	listingTimeout = 30 * time.Second
	authTimeout    = 20 * time.Second
	probeTimeout   = 15 * time.Second
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the storefront origin (tests point it at a local server).
	BaseURL string

	// ProxyURL routes general catalog/auth traffic, e.g. "http://1.2.3.4:8800".
	// Empty means direct.
	ProxyURL string

	// DomesticProxyURL routes the cart availability probe, which the
	// storefront only answers from in-country addresses. Empty disables
	// the probe unless DomesticDirect is set.
	DomesticProxyURL string

	// DomesticDirect marks the host itself as in-country, enabling the
	// availability probe without a proxy.
	DomesticDirect bool

	// ProxyUsername and ProxyPassword apply to both proxies.
	ProxyUsername string
	ProxyPassword string

	Logger *zerolog.Logger
}

// Client talks to the storefront APIs. Zero-value is not usable; construct
// with NewClient.
type Client struct {
	base     string
	http     *http.Client
	domestic *http.Client // nil when the availability probe is unavailable
	log      zerolog.Logger
}

// NewClient builds a Client from Options.
func NewClient(opts Options) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	general, err := newHTTPClient(opts.ProxyURL, opts.ProxyUsername, opts.ProxyPassword)
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}

	var domestic *http.Client
	switch {
	case opts.DomesticProxyURL != "":
		domestic, err = newHTTPClient(opts.DomesticProxyURL, opts.ProxyUsername, opts.ProxyPassword)
		if err != nil {
			return nil, fmt.Errorf("domestic proxy: %w", err)
		}
	case opts.DomesticDirect:
		domestic, _ = newHTTPClient("", "", "")
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		base:     base,
		http:     general,
		domestic: domestic,
		log:      logger.With().Str("component", "shein").Logger(),
	}, nil
}

func newHTTPClient(proxyURL, username, password string) (*http.Client, error) {
	tr := &http.Transport{}
	if proxyURL != "" {
		u, err := url.Parse(ensureScheme(proxyURL))
		if err != nil {
			return nil, err
		}
		if username != "" && password != "" {
			u.User = url.UserPassword(username, password)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Transport: tr}, nil
}

func ensureScheme(raw string) string {
	if regexp.MustCompile(`^[a-z][a-z0-9+.-]*://`).MatchString(raw) {
		return raw
	}
	return "http://" + raw
}

// CanCheckAvailability reports whether the cart availability probe can be
// attempted at all (in-country route configured).
func (c *Client) CanCheckAvailability() bool { return c.domestic != nil }

var productIDRe = regexp.MustCompile(`/p/(\d+)`)

// ExtractProductID pulls the numeric product code out of a product URL
// like "/p/443336453_pink". Empty when the URL has no product segment.
func ExtractProductID(productURL string) string {
	m := productIDRe.FindStringSubmatch(productURL)
	if m == nil {
		return ""
	}
	return m[1]
}
