package domain

import (
	"math"
	"sort"
	"strings"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// AllCategories disables the category filter.
const AllCategories = "all"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ProductQuery is one paginated listing request.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     SortOrder
}

// Normalize replaces invalid values with defaults. Non-positive page or
// limit fall back, limit is capped at maxLimit when maxLimit > 0, and any
// sort other than oldest means newest. Page is clamped so Skip cannot
// overflow, and "all" becomes the empty category.
func (q ProductQuery) Normalize(defaultLimit, maxLimit int) ProductQuery {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Page > math.MaxInt/q.Limit {
		q.Page = math.MaxInt / q.Limit
	}
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	if q.Category == AllCategories {
		q.Category = ""
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q ProductQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

// CategoryFilter returns the exact category to match, if any.
func (q ProductQuery) CategoryFilter() (string, bool) {
	if q.Category == "" || q.Category == AllCategories {
		return "", false
	}
	return q.Category, true
}

// Matches applies the search OR-group and the category clause.
func (q ProductQuery) Matches(p Product) bool {
	if c, ok := q.CategoryFilter(); ok && p.Category != c {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}

// SortProducts orders products by creation time. Ties break on id so that
// pagination over equal timestamps is stable.
func SortProducts(products []Product, order SortOrder) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if order == SortOldest {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if order == SortOldest {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// Paginate slices an already sorted result set. Pages past the end, and
// queries that were never normalized, give an empty slice.
func Paginate(products []Product, q ProductQuery) []Product {
	if q.Page < 1 || q.Limit < 1 || q.Page-1 >= (len(products)+q.Limit-1)/q.Limit {
		return []Product{}
	}
	skip := q.Skip()
	end := skip + q.Limit
	if end > len(products) {
		end = len(products)
	}
	return products[skip:end]
}

// Page is one slice of a filtered, sorted listing.
type Page struct {
	Items []Product
	Total int64
	Page  int
	Limit int
	Pages int
}

// TotalPages is ceil(total/limit). It is 0 when nothing matched.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func NewPage(items []Product, total int64, q ProductQuery) Page {
	if items == nil {
		items = []Product{}
	}
	return Page{
		Items: items,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Pages: TotalPages(total, q.Limit),
	}
}
