package shein

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/averma/versewatch/internal/domain"
)

// deliveryResponse covers both spellings the endpoint has been seen to use.
type deliveryResponse struct {
	Servicability  *bool `json:"servicability"`
	Serviceable    *bool `json:"serviceable"`
	ProductDetails []struct {
		EDDUpper string `json:"eddUpper"`
	} `json:"productDetails"`
}

// CheckDeliverable probes whether productCode can be delivered to pincode.
// Any transport or parse failure yields domain.Unknown, never an error.
func (c *Client) CheckDeliverable(ctx context.Context, productCode, pincode, userCookies string) domain.TriState {
	q := url.Values{}
	q.Set("productCode", productCode)
	q.Set("postalCode", pincode)
	q.Set("quantity", "1")
	q.Set("IsExchange", "false")
	probeURL := c.base + "/api/edd/checkDeliveryDetails?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return domain.Unknown
	}
	browserHeaders(req, c.base+"/p/"+productCode, cookiesOrDefault(userCookies))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("product", productCode).Str("pincode", pincode).Msg("delivery probe failed")
		return domain.Unknown
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Unknown
	}

	var data deliveryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return domain.Unknown
	}

	verdict := data.Servicability
	if verdict == nil {
		verdict = data.Serviceable
	}
	if verdict == nil {
		return domain.Unknown
	}
	if *verdict {
		edd := ""
		if len(data.ProductDetails) > 0 {
			edd = data.ProductDetails[0].EDDUpper
		}
		c.log.Info().Str("product", productCode).Str("pincode", pincode).Str("edd", edd).Msg("deliverable")
		return domain.Yes
	}
	c.log.Debug().Str("product", productCode).Str("pincode", pincode).Msg("not deliverable")
	return domain.No
}

type cartResponse struct {
	Success bool   `json:"success"`
	CartID  string `json:"cartId"`
}

// CheckAvailability probes whether productCode can be added to a cart.
// The endpoint only answers from in-country addresses; when no domestic
// route is configured the result is always Unknown. As with delivery,
// failures yield Unknown, never an error.
func (c *Client) CheckAvailability(ctx context.Context, productCode, userCookies string) domain.TriState {
	if c.domestic == nil {
		return domain.Unknown
	}

	payload, _ := json.Marshal(map[string]any{"productCode": productCode, "quantity": 1})

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/cart/add", bytes.NewReader(payload))
	if err != nil {
		return domain.Unknown
	}
	browserHeaders(req, c.base+"/p/"+productCode, cookiesOrDefault(userCookies))
	req.Header.Set("content-type", "application/json")
	req.Header.Set("origin", c.base)

	resp, err := c.domestic.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("product", productCode).Msg("cart probe failed")
		return domain.Unknown
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Unknown
	}
	raw := string(body)
	if strings.Contains(raw, "Access Denied") {
		c.log.Debug().Str("product", productCode).Msg("cart probe blocked")
		return domain.Unknown
	}

	var data cartResponse
	if err := json.Unmarshal(body, &data); err == nil {
		if data.Success || data.CartID != "" {
			return domain.Yes
		}
	}
	low := strings.ToLower(raw)
	if strings.Contains(raw, "outOfStock") || strings.Contains(low, "sold out") {
		return domain.No
	}
	return domain.Unknown
}
