package query

import (
	"slices"
	"strings"
	"sync"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var log = logger.GetLogger("query")

// PageSize is the number of products on one catalogue page
const PageSize = 12

// Sort orders
const (
	SortNewest  = "newest"
	SortNameAsc = "name-asc"
)

// Params selects one catalogue page. Zero values disable a filter.
type Params struct {
	Query       string // Case-insensitive substring of name or description
	Slug        string // Category or department slug
	BrandID     string
	InStockOnly bool
	Sort        string // SortNewest, SortNameAsc or anything else for stored order
	Page        int    // 1-based (values < 1 read as 1)
}

// Result is one page of the filtered catalogue
type Result struct {
	Items []catalog.Product `json:"items"`
	Total int               `json:"total"` // Matches over all pages
	Pages int               `json:"pages"`
	Page  int               `json:"page"` // Effective page
}

// Snapshot is the table data a query runs on
type Snapshot struct {
	Products    []catalog.Product
	Categories  []catalog.Category
	Departments []catalog.Department
}

// collator is not safe for concurrent use
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.BrazilianPortuguese)
	},
}

// Run filters, sorts and pages the products of snap. The steps run in this
// order: active only, text, slug, brand, in stock, sort, page.
func Run(snap Snapshot, p Params) Result {
	items := Filter(snap, p)
	SortProducts(items, p.Sort)
	return Paginate(items, p.Page)
}

// Filter returns the active products of snap matching every filter of p in
// stored order.
func Filter(snap Snapshot, p Params) []catalog.Product {
	items := lo.Filter(snap.Products, func(prod catalog.Product, _ int) bool { return prod.Active })

	if p.Query != "" {
		q := strings.ToLower(p.Query)
		items = lo.Filter(items, func(prod catalog.Product, _ int) bool {
			return strings.Contains(strings.ToLower(prod.Name), q) ||
				strings.Contains(strings.ToLower(prod.Description), q)
		})
	}

	if p.Slug != "" {
		if categoryIDs, ok := resolveSlug(snap, p.Slug); ok {
			items = lo.Filter(items, func(prod catalog.Product, _ int) bool {
				return categoryIDs[prod.CategoryID]
			})
		} else {
			log.Debugf("slug %q matches no active category or department", p.Slug)
		}
	}

	if p.BrandID != "" {
		items = lo.Filter(items, func(prod catalog.Product, _ int) bool { return prod.BrandID == p.BrandID })
	}

	if p.InStockOnly {
		items = lo.Filter(items, func(prod catalog.Product, _ int) bool { return prod.InStock() })
	}

	return items
}

// resolveSlug returns the category ids a slug stands for. An active category
// slug wins over an active department slug. Unknown slugs do not filter.
func resolveSlug(snap Snapshot, slug string) (map[string]bool, bool) {
	active := lo.Filter(snap.Categories, func(c catalog.Category, _ int) bool { return c.Active })

	if cat, ok := lo.Find(active, func(c catalog.Category) bool { return c.Slug == slug }); ok {
		return map[string]bool{cat.ID: true}, true
	}

	dep, ok := lo.Find(snap.Departments, func(d catalog.Department) bool { return d.Active && d.Slug == slug })
	if !ok {
		return nil, false
	}
	ids := map[string]bool{}
	for _, c := range active {
		if c.DepartmentID == dep.ID {
			ids[c.ID] = true
		}
	}
	return ids, true
}

// SortProducts sorts items in place. The sort is stable, equal keys keep
// their stored order.
func SortProducts(items []catalog.Product, order string) {
	switch order {
	case SortNewest:
		slices.SortStableFunc(items, func(a, b catalog.Product) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortNameAsc:
		c := collators.Get().(*collate.Collator)
		defer collators.Put(c)
		slices.SortStableFunc(items, func(a, b catalog.Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
}

// Paginate returns page (1-based) of items. Pages past the end are empty.
func Paginate(items []catalog.Product, page int) Result {
	if page < 1 {
		page = 1
	}
	total := len(items)
	start := total
	if page-1 <= total/PageSize {
		start = min((page-1)*PageSize, total)
	}
	end := min(start+PageSize, total)

	return Result{
		Items: slices.Clone(items[start:end]),
		Total: total,
		Pages: (total + PageSize - 1) / PageSize,
		Page:  page,
	}
}
