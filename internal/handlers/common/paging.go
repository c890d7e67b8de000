package common

import (
	"net/url"
	"strconv"
	"strings"

	"acctrack/internal/validation"
)

// ParsePaging reads page and page_size (or per_page) from q. Absent values
// come back as 0 for the caller to default; malformed or negative values are
// a validation error.
func ParsePaging(q url.Values) (page, size int, err error) {
	ve := &validation.ValidationErrors{}
	page = parseCount(ve, "page", q.Get("page"))
	sizeKey := "page_size"
	if strings.TrimSpace(q.Get(sizeKey)) == "" {
		sizeKey = "per_page"
	}
	size = parseCount(ve, sizeKey, q.Get(sizeKey))
	return page, size, ve.Err()
}

func parseCount(ve *validation.ValidationErrors, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		ve.Add(field, "must be a non-negative integer")
		return 0
	}
	return n
}
