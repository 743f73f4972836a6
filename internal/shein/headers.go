package shein

import (
	"net/http"
	"strings"
)

// browserHeaders stamps a request with the header set the storefront's bot
// protection expects from its own web frontend.
func browserHeaders(req *http.Request, referer, cookies string) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("accept-language", "en-GB,en-US;q=0.9,en;q=0.8")
	req.Header.Set("user-agent", userAgent)
	req.Header.Set("x-tenant-id", "SHEIN")
	req.Header.Set("sec-ch-ua", `"Chromium";v="137", "Not/A)Brand";v="24"`)
	req.Header.Set("sec-ch-ua-mobile", "?1")
	req.Header.Set("sec-ch-ua-platform", `"Android"`)
	req.Header.Set("sec-fetch-dest", "empty")
	req.Header.Set("sec-fetch-mode", "cors")
	req.Header.Set("sec-fetch-site", "same-origin")
	if referer != "" {
		req.Header.Set("referer", referer)
	}
	if cookies != "" {
		req.Header.Set("cookie", cookies)
	}
}

// cookiesOrDefault substitutes the anonymous base cookie set when the user
// has no stored credentials.
func cookiesOrDefault(userCookies string) string {
	if strings.TrimSpace(userCookies) == "" {
		return baseCookies
	}
	return userCookies
}

// cookiePair is one name=value entry; assembly preserves insertion order
// so the resulting header is stable.
type cookiePair struct {
	name  string
	value string
}

type cookieJar struct {
	pairs []cookiePair
}

func (j *cookieJar) set(name, value string) {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		return
	}
	for i := range j.pairs {
		if j.pairs[i].name == name {
			j.pairs[i].value = value
			return
		}
	}
	j.pairs = append(j.pairs, cookiePair{name, value})
}

func (j *cookieJar) header() string {
	parts := make([]string, 0, len(j.pairs))
	for _, p := range j.pairs {
		parts = append(parts, p.name+"="+p.value)
	}
	return strings.Join(parts, "; ")
}

// AssembleCredentials merges the login response into a single Cookie header
// value: body tokens first (A=accessToken, R=refreshToken), then any
// Set-Cookie response headers, then the logged-in defaults.
func AssembleCredentials(accessToken, refreshToken string, setCookies []string) string {
	var jar cookieJar
	if accessToken != "" {
		jar.set("A", accessToken)
	}
	if refreshToken != "" {
		jar.set("R", refreshToken)
	}
	for _, sc := range setCookies {
		nameVal := strings.SplitN(sc, ";", 2)[0]
		if eq := strings.Index(nameVal, "="); eq > 0 {
			jar.set(nameVal[:eq], nameVal[eq+1:])
		}
	}
	jar.set("LS", "LOGGED_IN")
	jar.set("customerType", "Existing")
	return jar.header()
}
