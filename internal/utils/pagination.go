// Package utils holds small helpers with no domain dependencies.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or not
// a valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParsePage converts raw page/per_page query values into a clamped window.
// page defaults to 1 and is forced >= 1; per defaults to defPer and is
// clamped into [1, maxPer]. The returned offset is (page-1)*per.
func ParsePage(pageRaw, perRaw string, defPer, maxPer int) (page, per, offset int) {
	page = AtoiDefault(pageRaw, 1)
	if page < 1 {
		page = 1
	}
	per = AtoiDefault(perRaw, defPer)
	if per < 1 {
		per = 1
	}
	if per > maxPer {
		per = maxPer
	}
	return page, per, (page - 1) * per
}
