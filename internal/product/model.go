package product

import (
	"strings"
	"time"
)

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price          string    `json:"price"`
	Stock          int       `json:"stock"`
	Category       string    `json:"category"`
	Image          string    `json:"image,omitempty"`
	Specifications string    `json:"specifications,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortNewest    = "newest"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Query filters a catalog listing. Empty strings mean "no filter".
// MinPrice and MaxPrice are decimal strings already validated by the caller.
type Query struct {
	Category string
	Search   string
	MinPrice string
	MaxPrice string
	Sort     string
	Page     int
	Limit    int
}

// Normalize applies paging defaults and drops unknown sort keys.
func (q Query) Normalize() Query {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}
	switch q.Sort {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortNewest:
	default:
		q.Sort = ""
	}
	return q
}

func (q Query) Offset() int { return (q.Page - 1) * q.Limit }

// ListResponse represents a paginated page of products.
// swagger:model
type ListResponse struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
}

func NewListResponse(items []Product, total int, q Query) ListResponse {
	if items == nil {
		items = []Product{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return ListResponse{Products: items, Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}

// likePattern wraps s for a substring LIKE match, escaping wildcards.
func likePattern(s string) string {
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
