package shein

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/averma/versewatch/internal/domain"
)

// defaultFacets is applied when a filter URL carries no facets parameter.
const defaultFacets = "genderfilter:Men:verticalsizegroupformat:S:verticalsizegroupformat:M:verticalsizegroupformat:L:verticalsizegroupformat:28:verticalsizegroupformat:30"

// ExtractCategoryCode pulls the category code out of a storefront filter
// URL. It prefers a path segment containing "sverse", then the segment
// after "/c/", then falls back to the last path segment. Empty when the
// URL is unparseable or has no path.
func ExtractCategoryCode(filterURL string) string {
	u, err := url.Parse(filterURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return ""
	}
	for _, part := range parts {
		if strings.Contains(strings.ToLower(part), "sverse") {
			return strings.TrimPrefix(part, "c/")
		}
	}
	if len(parts) >= 2 && parts[0] == "c" {
		return parts[1]
	}
	return parts[len(parts)-1]
}

// listingQuery builds the category listing query string for one page.
// The facets come from the filter URL, or defaultFacets when absent.
func listingQuery(filterURL string) url.Values {
	facets := defaultFacets
	if u, err := url.Parse(filterURL); err == nil {
		if f := u.Query().Get("facets"); f != "" {
			facets = f
		}
	}
	q := url.Values{}
	q.Set("fields", "SITE")
	q.Set("currentPage", "0")
	q.Set("pageSize", "60")
	q.Set("format", "json")
	q.Set("gridColumns", "2")
	q.Set("segmentIds", "15,8,19")
	q.Set("customerType", "Existing")
	q.Set("includeUnratedProducts", "false")
	q.Set("advfilter", "true")
	q.Set("platform", "Desktop")
	q.Set("showAdsOnNextPage", "false")
	q.Set("is_ads_enable_plp", "true")
	q.Set("displayRatings", "true")
	q.Set("customertype", "Existing")
	q.Set("store", "shein")
	q.Set("facets", facets)
	q.Set("query", ":relevance:"+facets)
	return q
}

// listingResponse mirrors the subset of the category API payload we read.
type listingResponse struct {
	Products []struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Price struct {
			Value float64 `json:"value"`
		} `json:"price"`
		ColorVariant struct {
			BrandName        string `json:"brandName"`
			OutfitPictureURL string `json:"outfitPictureURL"`
		} `json:"fnlColorVariantData"`
	} `json:"products"`
	Pagination struct {
		TotalNumberOfResults int `json:"totalNumberOfResults"`
		NumberOfPages        int `json:"numberOfPages"`
		CurrentPage          int `json:"currentPage"`
	} `json:"pagination"`
}

// FetchProducts fetches the first listing page for a filter URL and maps it
// to products. Any failure (malformed URL, transport error, bot-protection
// HTML, schema drift) logs and returns an empty slice, never an error:
// a flaky listing must not abort a check run.
func (c *Client) FetchProducts(ctx context.Context, filterURL, userCookies string) []domain.Product {
	category := ExtractCategoryCode(filterURL)
	if category == "" {
		c.log.Warn().Str("url", filterURL).Msg("could not extract category from filter url")
		return nil
	}

	apiURL := c.base + "/api/category/" + category + "?" + listingQuery(filterURL).Encode()

	ctx, cancel := context.WithTimeout(ctx, listingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("build listing request")
		return nil
	}
	browserHeaders(req, filterURL, cookiesOrDefault(userCookies))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("category", category).Msg("listing request failed")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.log.Warn().Err(err).Str("category", category).Msg("listing read failed")
		return nil
	}

	var data listingResponse
	if err := json.Unmarshal(body, &data); err != nil {
		if strings.Contains(string(body), "Access Denied") {
			c.log.Warn().Str("category", category).Msg("listing access denied")
		} else {
			c.log.Warn().Str("category", category).Msg("listing response not json")
		}
		return nil
	}

	out := make([]domain.Product, 0, len(data.Products))
	for _, p := range data.Products {
		if p.Code == "" {
			continue
		}
		out = append(out, domain.Product{
			Code:     p.Code,
			Name:     strings.TrimSpace(p.ColorVariant.BrandName + " " + p.Name),
			Price:    p.Price.Value,
			ImageURL: p.ColorVariant.OutfitPictureURL,
			URL:      c.base + "/p/" + p.Code,
		})
	}
	c.log.Debug().
		Str("category", category).
		Int("products", len(out)).
		Int("total", data.Pagination.TotalNumberOfResults).
		Msg("listing fetched")
	return out
}
