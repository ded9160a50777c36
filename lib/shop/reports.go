package shop

import (
	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

// ActiveBanner returns the first active banner for position in stored order.
func (s *Shop) ActiveBanner(position catalog.BannerPosition) (mo.Option[catalog.Banner], error) {
	banners, err := s.Banners.All()
	if err != nil {
		return mo.None[catalog.Banner](), err
	}
	b, ok := lo.Find(banners, func(b catalog.Banner) bool {
		return b.Active && b.Position == position
	})
	if !ok {
		return mo.None[catalog.Banner](), nil
	}
	return mo.Some(b), nil
}

// CheckReferences lists categories whose department is gone and products
// whose category or brand is gone. Deletes never cascade, so these are not
// errors, only a report.
func (s *Shop) CheckReferences() ([]catalog.DanglingRef, error) {
	departments, err := s.Departments.All()
	if err != nil {
		return nil, err
	}
	categories, err := s.Categories.All()
	if err != nil {
		return nil, err
	}
	brands, err := s.Brands.All()
	if err != nil {
		return nil, err
	}
	products, err := s.Products.All()
	if err != nil {
		return nil, err
	}

	depIDs := lo.SliceToMap(departments, func(d catalog.Department) (string, bool) { return d.ID, true })
	catIDs := lo.SliceToMap(categories, func(c catalog.Category) (string, bool) { return c.ID, true })
	brandIDs := lo.SliceToMap(brands, func(b catalog.Brand) (string, bool) { return b.ID, true })

	refs := []catalog.DanglingRef{}
	for _, c := range categories {
		if !depIDs[c.DepartmentID] {
			refs = append(refs, catalog.DanglingRef{Entity: "category", ID: c.ID, Field: "departmentId", Ref: c.DepartmentID})
		}
	}
	for _, p := range products {
		if !catIDs[p.CategoryID] {
			refs = append(refs, catalog.DanglingRef{Entity: "product", ID: p.ID, Field: "categoryId", Ref: p.CategoryID})
		}
		if p.BrandID != "" && !brandIDs[p.BrandID] {
			refs = append(refs, catalog.DanglingRef{Entity: "product", ID: p.ID, Field: "brandId", Ref: p.BrandID})
		}
	}
	return refs, nil
}

// Summary is the admin dashboard overview
type Summary struct {
	Orders         int               `json:"orders"`
	Revenue        decimal.Decimal   `json:"revenue"`
	Products       int               `json:"products"`
	ActiveProducts int               `json:"activeProducts"`
	LowStock       []catalog.Product `json:"lowStock"`
	OrdersByStatus map[string]int    `json:"ordersByStatus"`
}

// Summary counts orders and revenue (sum of order totals) and lists the
// products with less than LowStockThreshold units.
func (s *Shop) Summary() (Summary, error) {
	orders, err := s.Orders.All()
	if err != nil {
		return Summary{}, err
	}
	products, err := s.Products.All()
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Orders: len(orders),
		Revenue: lo.Reduce(orders, func(acc decimal.Decimal, o catalog.Order, _ int) decimal.Decimal {
			return acc.Add(o.Total)
		}, decimal.Zero),
		Products:       len(products),
		ActiveProducts: lo.CountBy(products, func(p catalog.Product) bool { return p.Active }),
		LowStock: lo.Filter(products, func(p catalog.Product, _ int) bool {
			return p.Stock < LowStockThreshold
		}),
		OrdersByStatus: lo.CountValuesBy(orders, func(o catalog.Order) string { return string(o.Status) }),
	}, nil
}
