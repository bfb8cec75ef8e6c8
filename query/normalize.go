package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50

	defaultSortField = FieldCreatedAt
	defaultSortOrder = OrderDesc
)

// Descriptor is a normalized list request. It is built fresh for every
// request by Normalize and always satisfies: Page >= 1, 1 <= Limit <= 50,
// Sort.Field sortable, Sort.Order asc or desc. Empty filter strings mean
// the filter is not applied.
type Descriptor struct {
	Page   int
	Limit  int
	Sort   Sort
	Artist string
	Album  string
	Genre  string
	Search string
}

// Normalize turns raw query parameters into a Descriptor.
//
// Malformed input never fails: bad page/limit values fall back to their
// defaults, limits above 50 are capped, unknown sort fields become createdAt
// and any sort order other than "asc" becomes desc.
func Normalize(values url.Values) Descriptor {
	return Descriptor{
		Page:  parsePositive(values.Get("page"), defaultPage),
		Limit: validateLimit(parsePositive(values.Get("limit"), defaultLimit), defaultLimit, maxLimit),
		Sort: Sort{
			Field: normalizeSortField(values.Get("sortBy")),
			Order: normalizeSortOrder(values.Get("sortOrder")),
		},
		Artist: strings.TrimSpace(values.Get("artist")),
		Album:  strings.TrimSpace(values.Get("album")),
		Genre:  strings.TrimSpace(values.Get("genre")),
		Search: strings.TrimSpace(values.Get("search")),
	}
}

// Offset is the number of matching records before the requested page.
// It saturates instead of overflowing for absurd page numbers.
func (d Descriptor) Offset() int {
	if d.Page <= 1 || d.Limit <= 0 {
		return 0
	}
	if d.Page-1 > math.MaxInt/d.Limit {
		return math.MaxInt
	}
	return (d.Page - 1) * d.Limit
}

// Searching reports whether the request carries a free-text term.
func (d Descriptor) Searching() bool {
	return d.Search != ""
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func normalizeSortField(raw string) Field {
	f := Field(raw)
	if f.IsSortable() {
		return f
	}
	return defaultSortField
}

func normalizeSortOrder(raw string) Order {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderAsc)) {
		return OrderAsc
	}
	return defaultSortOrder
}
