package query

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/VictoriaMetrics/metrics"
)

var (
	queryDuration = metrics.NewHistogram("dshop_query_duration_seconds")
	queryResults  = metrics.NewHistogram("dshop_query_results")
)

func queryErrors(op string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`dshop_query_errors_total{op=%q}`, op))
}

// Source provides the tables a query reads. *shop.Shop implements it
// through its typed tables, see FromTables.
type Source interface {
	Snapshot() (Snapshot, error)
}

// IEngine runs catalogue queries on a Source.
type IEngine interface {
	// Query returns one filtered, sorted page of the catalogue
	Query(p Params) (Result, error)
	// ByCategory returns the active products of a category in stored order
	ByCategory(categoryID string) ([]catalog.Product, error)
	// ByDepartment returns the active products of the active categories of a department
	ByDepartment(departmentID string) ([]catalog.Product, error)
	// Search returns the active products whose name or description contains q
	Search(q string) ([]catalog.Product, error)
}

type engineImpl struct {
	src Source
}

// NewEngine creates a query engine reading from src on every call.
func NewEngine(src Source) IEngine {
	return &engineImpl{src: src}
}

func (e *engineImpl) snapshot(op string) (Snapshot, error) {
	snap, err := e.src.Snapshot()
	if err != nil {
		queryErrors(op).Inc()
		return Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

func (e *engineImpl) Query(p Params) (Result, error) {
	start := time.Now()
	snap, err := e.snapshot("query")
	if err != nil {
		return Result{}, err
	}
	res := Run(snap, p)
	queryDuration.UpdateDuration(start)
	queryResults.Update(float64(res.Total))
	log.Debugf("query %+v matched %d products", p, res.Total)
	return res, nil
}

func (e *engineImpl) ByCategory(categoryID string) ([]catalog.Product, error) {
	snap, err := e.snapshot("by-category")
	if err != nil {
		return nil, err
	}
	out := []catalog.Product{}
	for _, p := range snap.Products {
		if p.Active && p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (e *engineImpl) ByDepartment(departmentID string) ([]catalog.Product, error) {
	snap, err := e.snapshot("by-department")
	if err != nil {
		return nil, err
	}
	ids := map[string]bool{}
	for _, c := range snap.Categories {
		if c.Active && c.DepartmentID == departmentID {
			ids[c.ID] = true
		}
	}
	out := []catalog.Product{}
	for _, p := range snap.Products {
		if p.Active && ids[p.CategoryID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (e *engineImpl) Search(q string) ([]catalog.Product, error) {
	snap, err := e.snapshot("search")
	if err != nil {
		return nil, err
	}
	return Filter(snap, Params{Query: q}), nil
}

// --------------------------------------------------------------------------
// Sources
// --------------------------------------------------------------------------

// Lister is implemented by the typed shop tables
type Lister[T any] interface {
	All() ([]T, error)
}

type tablesSource struct {
	products    Lister[catalog.Product]
	categories  Lister[catalog.Category]
	departments Lister[catalog.Department]
}

// FromTables reads the snapshot from three tables, e.g.
// FromTables(s.Products, s.Categories, s.Departments) for a *shop.Shop.
func FromTables(products Lister[catalog.Product], categories Lister[catalog.Category], departments Lister[catalog.Department]) Source {
	return &tablesSource{products: products, categories: categories, departments: departments}
}

func (t *tablesSource) Snapshot() (Snapshot, error) {
	products, err := t.products.All()
	if err != nil {
		return Snapshot{}, err
	}
	categories, err := t.categories.All()
	if err != nil {
		return Snapshot{}, err
	}
	departments, err := t.departments.All()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Products: products, Categories: categories, Departments: departments}, nil
}

// Static is a fixed snapshot, used for benchmarks and tests.
type Static Snapshot

func (s Static) Snapshot() (Snapshot, error) {
	return Snapshot(s), nil
}
