package query

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/seed"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshot(t testing.TB) Snapshot {
	t.Helper()
	ds, err := seed.Default()
	require.NoError(t, err)
	return Snapshot{Products: ds.Products, Categories: ds.Categories, Departments: ds.Departments}
}

func ids(products []catalog.Product) []string {
	return lo.Map(products, func(p catalog.Product, _ int) string { return p.ID })
}

func TestRunDefaults(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{})
	assert.Equal(t, 15, res.Total, "inactive products are never listed")
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, PageSize)
	assert.NotContains(t, ids(res.Items), "prod-16")
	// stored order without a sort
	assert.Equal(t, "prod-1", res.Items[0].ID)
}

func TestPagination(t *testing.T) {
	snap := seedSnapshot(t)

	second := Run(snap, Params{Page: 2})
	assert.Equal(t, []string{"prod-13", "prod-14", "prod-15"}, ids(second.Items))
	assert.Equal(t, 15, second.Total)

	past := Run(snap, Params{Page: 3})
	assert.Empty(t, past.Items)
	assert.Equal(t, 15, past.Total)
	assert.Equal(t, 3, past.Page)

	for _, page := range []int{0, -4} {
		res := Run(snap, Params{Page: page})
		assert.Equal(t, 1, res.Page)
		assert.Len(t, res.Items, PageSize)
	}

	// every match is on exactly one page
	all := append(Run(snap, Params{Page: 1}).Items, second.Items...)
	assert.Len(t, lo.Uniq(ids(all)), 15)
}

func TestPaginateHugePage(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{Page: math.MaxInt})
	assert.Empty(t, res.Items)
	assert.Equal(t, 15, res.Total)
	assert.Equal(t, math.MaxInt, res.Page)

	res = Paginate(snap.Products, math.MaxInt)
	assert.Empty(t, res.Items)
	assert.Equal(t, len(snap.Products), res.Total)
}

func TestPaginateEmpty(t *testing.T) {
	res := Paginate(nil, 1)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Pages)
	assert.Empty(t, res.Items)
}

func TestTextFilter(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{Query: "LOGITECH"})
	assert.Equal(t, []string{"prod-5", "prod-6", "prod-9"}, ids(res.Items))

	// description matches too
	res = Run(snap, Params{Query: "cancelamento de ruído"})
	assert.Equal(t, []string{"prod-10"}, ids(res.Items))

	res = Run(snap, Params{Query: "geladeira"})
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Items)
}

func TestSlugFilter(t *testing.T) {
	snap := seedSnapshot(t)

	tests := []struct {
		name string
		slug string
		want []string
	}{
		{"category", "notebooks", []string{"prod-1", "prod-2"}},
		{"department", "games", []string{"prod-7", "prod-8", "prod-9"}},
		{"department with three categories", "informatica", []string{"prod-1", "prod-2", "prod-3", "prod-4", "prod-5", "prod-6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(snap, Params{Slug: tt.slug})))
		})
	}

	// inactive and unknown slugs do not filter
	for _, slug := range []string{"outlet", "ofertas-antigas", "nao-existe"} {
		assert.Len(t, Filter(snap, Params{Slug: slug}), 15, slug)
	}
}

func TestSlugPrefersCategory(t *testing.T) {
	snap := Snapshot{
		Departments: []catalog.Department{{ID: "d1", Slug: "audio", Active: true}},
		Categories: []catalog.Category{
			{ID: "c1", DepartmentID: "d1", Slug: "fones", Active: true},
			{ID: "c2", DepartmentID: "d1", Slug: "audio", Active: true},
		},
		Products: []catalog.Product{
			{ID: "p1", CategoryID: "c1", Active: true},
			{ID: "p2", CategoryID: "c2", Active: true},
		},
	}
	assert.Equal(t, []string{"p2"}, ids(Filter(snap, Params{Slug: "audio"})))
}

func TestFilterComposition(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{BrandID: "brand-3", InStockOnly: true})
	assert.Equal(t, []string{"prod-5", "prod-6"}, ids(res.Items))

	res = Run(snap, Params{Slug: "games", InStockOnly: true, Query: "controle"})
	assert.Equal(t, []string{"prod-8"}, ids(res.Items))

	// each filter only narrows the result
	for _, p := range []Params{
		{Query: "sony"},
		{Query: "sony", Slug: "audio-e-video"},
		{Query: "sony", Slug: "audio-e-video", InStockOnly: true},
		{Query: "sony", Slug: "audio-e-video", InStockOnly: true, BrandID: "brand-4"},
	} {
		for _, prod := range Filter(snap, p) {
			assert.True(t, prod.Active)
			if p.InStockOnly {
				assert.Positive(t, prod.Stock)
			}
			if p.BrandID != "" {
				assert.Equal(t, p.BrandID, prod.BrandID)
			}
		}
	}
}

func TestSortNewest(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{Sort: SortNewest})
	assert.Equal(t, []string{"prod-14", "prod-7", "prod-13", "prod-4"}, ids(res.Items[:4]))
	for i := 1; i < len(res.Items); i++ {
		assert.False(t, res.Items[i].CreatedAt.After(res.Items[i-1].CreatedAt))
	}
}

func TestSortNameAsc(t *testing.T) {
	snap := seedSnapshot(t)

	res := Run(snap, Params{Sort: SortNameAsc, InStockOnly: true})
	names := lo.Map(res.Items, func(p catalog.Product, _ int) string { return p.Name })
	assert.Equal(t, "AirPods Pro (2ª geração)", names[0])
	assert.Equal(t, "Console PlayStation 5", names[1])
	// lower case names sort by letter, not byte value
	assert.Equal(t, "iPhone 15 128GB", names[4])
}

func TestSortCollation(t *testing.T) {
	products := []catalog.Product{{Name: "Ágata"}, {Name: "Azul"}, {Name: "Abacaxi"}, {Name: "avião"}}
	SortProducts(products, SortNameAsc)
	assert.Equal(t, []string{"Abacaxi", "Ágata", "avião", "Azul"},
		lo.Map(products, func(p catalog.Product, _ int) string { return p.Name }))
}

func TestSortOrdersCaseVariants(t *testing.T) {
	products := []catalog.Product{{Name: "MOUSE"}, {Name: "Mouse"}, {Name: "mouse"}, {Name: "Monitor"}}
	SortProducts(products, SortNameAsc)
	assert.Equal(t, []string{"Monitor", "mouse", "Mouse", "MOUSE"},
		lo.Map(products, func(p catalog.Product, _ int) string { return p.Name }))
}

func TestSortIsStable(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []catalog.Product{
		{ID: "a", CreatedAt: at},
		{ID: "b", CreatedAt: at.Add(time.Hour)},
		{ID: "c", CreatedAt: at},
	}
	SortProducts(products, SortNewest)
	assert.Equal(t, []string{"b", "a", "c"}, ids(products))

	SortProducts(products, "relevance")
	assert.Equal(t, []string{"b", "a", "c"}, ids(products))
}

func TestRunDoesNotModifySnapshot(t *testing.T) {
	snap := seedSnapshot(t)
	before := ids(snap.Products)
	Run(snap, Params{Sort: SortNameAsc})
	assert.Equal(t, before, ids(snap.Products))
}

func TestEngineHelpers(t *testing.T) {
	e := NewEngine(Static(seedSnapshot(t)))

	byCat, err := e.ByCategory("cat-6")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-10", "prod-11"}, ids(byCat))

	byDep, err := e.ByDepartment("dep-4")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-14", "prod-15"}, ids(byDep))

	found, err := e.Search("smart tv")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-12", "prod-13"}, ids(found))

	res, err := e.Query(Params{Slug: "smartphones", Sort: SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-14", "prod-15"}, ids(res.Items))
}

type failingSource struct{}

func (failingSource) Snapshot() (Snapshot, error) {
	return Snapshot{}, catalog.ErrStorageCorrupt
}

func TestEngineSourceError(t *testing.T) {
	_, err := NewEngine(failingSource{}).Query(Params{})
	assert.True(t, errors.Is(err, catalog.ErrStorageCorrupt))
}

func BenchmarkRun(b *testing.B) {
	snap := seedSnapshot(b)
	p := Params{Query: "o", Sort: SortNameAsc, Page: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Run(snap, p)
	}
}
