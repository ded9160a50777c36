package shop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/shipping"
	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const dataFile = "/var/lib/dshop/shop.db"

// openShop opens a snapshot backed shop on fs with a fixed clock.
func openShop(t *testing.T, fs afero.Fs, cfg Config) *Shop {
	t.Helper()
	cfg.Fs = fs
	if cfg.DataFile == "" {
		cfg.DataFile = dataFile
	}
	cfg.Shards = 4
	s, err := Open(cfg)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

// seededShop returns a seeded shop that is closed when the test ends.
func seededShop(t *testing.T, cfg Config) *Shop {
	t.Helper()
	s := openShop(t, afero.NewMemMapFs(), cfg)
	t.Cleanup(func() { _ = s.Close() })
	_, err := s.Seed(context.Background())
	require.NoError(t, err)
	return s
}

func order(items ...catalog.OrderItem) catalog.Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return catalog.Order{UserID: "user-1", Subtotal: total, Total: total, Items: items}
}

func item(productID string, qty int) catalog.OrderItem {
	return catalog.OrderItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromInt(10)}
}

func stockOf(t *testing.T, s *Shop, id string) int {
	t.Helper()
	p, err := s.Products.Get(id)
	require.NoError(t, err)
	return p.Stock
}

// --------------------------------------------------------------------------
// Seeding and tables
// --------------------------------------------------------------------------

func TestSeedIsIdempotent(t *testing.T) {
	s := openShop(t, afero.NewMemMapFs(), Config{})
	defer s.Close()
	ctx := context.Background()

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, seeded, len(Tables)+1)

	products, err := s.Products.All()
	require.NoError(t, err)
	assert.Len(t, products, 16)

	// a changed record survives a second seed
	_, err = s.Brands.Save(ctx, catalog.Brand{ID: "brand-1", Name: "Dell Technologies", Slug: "dell"})
	require.NoError(t, err)

	seeded, err = s.Seed(ctx)
	require.NoError(t, err)
	assert.Empty(t, seeded)

	b, err := s.Brands.Get("brand-1")
	require.NoError(t, err)
	assert.Equal(t, "Dell Technologies", b.Name)
}

func TestSeedOnlyFillsAbsentSlots(t *testing.T) {
	s := openShop(t, afero.NewMemMapFs(), Config{})
	defer s.Close()
	ctx := context.Background()

	// an empty table is a present slot
	require.NoError(t, s.Store().Set(s.Key(string(TableBrands)), []byte("[]")))

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.NotContains(t, seeded, string(TableBrands))

	brands, err := s.Brands.All()
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestAbsentSlotIsEmptyTable(t *testing.T) {
	s := openShop(t, afero.NewMemMapFs(), Config{})
	defer s.Close()

	orders, err := s.Orders.All()
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	_, err = s.Orders.Get("ord-1")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSaveReplacesWholeRecord(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()

	before, err := s.Products.All()
	require.NoError(t, err)

	saved, err := s.Products.Save(ctx, catalog.Product{
		ID:         "prod-1",
		CategoryID: "cat-1",
		Name:       "Notebook Dell Inspiron 15 (2024)",
		SKU:        "DELL-INS15-I7",
		Price:      decimal.RequireFromString("4199.00"),
		Stock:      5,
		Active:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "notebook-dell-inspiron-15-2024", saved.Slug)

	after, err := s.Products.All()
	require.NoError(t, err)
	require.Len(t, after, len(before))

	// same position, no merge with the old record
	assert.Equal(t, "prod-1", after[0].ID)
	assert.Empty(t, after[0].Description)
	assert.Nil(t, after[0].SalePrice)
	assert.Equal(t, fixedNow, after[0].CreatedAt)
}

func TestSaveAppendsNewRecord(t *testing.T) {
	s := seededShop(t, Config{})

	saved, err := s.Departments.Save(context.Background(), catalog.Department{Name: "Câmeras & Foto", Order: 6, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "cameras-foto", saved.Slug)
	assert.NotEmpty(t, saved.ID)

	all, err := s.Departments.All()
	require.NoError(t, err)
	assert.Equal(t, saved.ID, all[len(all)-1].ID)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.Products.Save(context.Background(), catalog.Product{
		ID: "prod-1", Name: "X", CategoryID: "cat-1", SKU: "X", Price: decimal.Zero,
	})
	var vErr *catalog.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Has("price"))

	// nothing was written
	p, err := s.Products.Get("prod-1")
	require.NoError(t, err)
	assert.Equal(t, "Notebook Dell Inspiron 15", p.Name)
}

func TestSaveRenameDerivesSlug(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()

	p, err := s.Products.Get("prod-12")
	require.NoError(t, err)
	p.Name = "Smart TV 50"
	p, err = s.Products.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "smart-tv-50", p.Slug)

	// a stale slug is replaced as well
	p.Name = "Monitor Gamer"
	_, err = s.Products.Save(ctx, p)
	require.NoError(t, err)

	got, err := s.Products.Get("prod-12")
	require.NoError(t, err)
	assert.Equal(t, "monitor-gamer", got.Slug)

	dep, err := s.Departments.Get("dep-3")
	require.NoError(t, err)
	dep.Name = "Som e Imagem"
	dep, err = s.Departments.Save(ctx, dep)
	require.NoError(t, err)
	assert.Equal(t, "som-e-imagem", dep.Slug)
}

func TestDelete(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()

	require.NoError(t, s.Brands.Delete(ctx, "brand-6"))
	_, err := s.Brands.Get("brand-6")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// absent ids are a no-op
	require.NoError(t, s.Brands.Delete(ctx, "brand-6"))
	brands, err := s.Brands.All()
	require.NoError(t, err)
	assert.Len(t, brands, 5)
}

func TestCorruptSlot(t *testing.T) {
	s := seededShop(t, Config{})

	require.NoError(t, s.Store().Set(s.Key(string(TableProducts)), []byte(`{"not": "a list"`)))

	_, err := s.Products.All()
	assert.ErrorIs(t, err, catalog.ErrStorageCorrupt)

	_, err = s.CreateOrder(context.Background(), order(item("prod-1", 1)))
	assert.ErrorIs(t, err, catalog.ErrStorageCorrupt)

	// other tables still work
	brands, err := s.Brands.All()
	require.NoError(t, err)
	assert.Len(t, brands, 6)
}

func TestRawTable(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.Table("coupons")
	assert.ErrorIs(t, err, catalog.ErrUnknownTable)

	tbl, err := s.Table("brands")
	require.NoError(t, err)

	rec, err := tbl.SaveJSON(context.Background(), []byte(`{"name": "Razer"}`))
	require.NoError(t, err)
	brand, ok := rec.(catalog.Brand)
	require.True(t, ok)
	assert.Equal(t, "razer", brand.Slug)

	records, err := tbl.Records()
	require.NoError(t, err)
	assert.Len(t, records, 7)

	_, err = tbl.SaveJSON(context.Background(), []byte(`{"name": `))
	assert.Error(t, err)
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

func TestCreateOrderDecrementsStock(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()
	require.Equal(t, 10, stockOf(t, s, "prod-7"))

	in := order(item("prod-7", 3))
	in.ID = "ord-client"
	in.Status = catalog.StatusDelivered

	created, err := s.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.NotEqual(t, "ord-client", created.ID)
	assert.Equal(t, catalog.StatusPending, created.Status)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, created.ID, created.Items[0].OrderID)
	assert.NotEmpty(t, created.Items[0].ID)

	assert.Equal(t, 7, stockOf(t, s, "prod-7"))

	stored, err := s.Orders.Get(created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestCreateOrderStockPolicies(t *testing.T) {
	t.Run("allow negative", func(t *testing.T) {
		s := seededShop(t, Config{})
		_, err := s.CreateOrder(context.Background(), order(item("prod-7", 15)))
		require.NoError(t, err)
		assert.Equal(t, -5, stockOf(t, s, "prod-7"))
	})

	t.Run("reject", func(t *testing.T) {
		s := seededShop(t, Config{StockPolicy: StockReject})
		_, err := s.CreateOrder(context.Background(), order(item("prod-1", 1), item("prod-7", 15)))
		assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

		// nothing was written
		assert.Equal(t, 10, stockOf(t, s, "prod-7"))
		assert.Equal(t, 12, stockOf(t, s, "prod-1"))
		orders, err := s.Orders.All()
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("reject sums repeated products", func(t *testing.T) {
		s := seededShop(t, Config{StockPolicy: StockReject})
		_, err := s.CreateOrder(context.Background(), order(item("prod-7", 6), item("prod-7", 5)))
		assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	})

	t.Run("clamp", func(t *testing.T) {
		s := seededShop(t, Config{StockPolicy: StockClamp})
		_, err := s.CreateOrder(context.Background(), order(item("prod-7", 15)))
		require.NoError(t, err)
		assert.Equal(t, 0, stockOf(t, s, "prod-7"))
	})
}

func TestSaveOversoldProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("allow negative", func(t *testing.T) {
		s := seededShop(t, Config{})
		_, err := s.CreateOrder(ctx, order(item("prod-7", 15)))
		require.NoError(t, err)

		p, err := s.Products.Get("prod-7")
		require.NoError(t, err)
		p.Price = decimal.RequireFromString("3999.90")
		saved, err := s.Products.Save(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, -5, saved.Stock)

		got, err := s.Products.Get("prod-7")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("reject", func(t *testing.T) {
		s := seededShop(t, Config{StockPolicy: StockReject})
		p, err := s.Products.Get("prod-7")
		require.NoError(t, err)
		p.Stock = -1

		_, err = s.Products.Save(ctx, p)
		var verr *catalog.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("stock"))
		assert.Equal(t, 10, stockOf(t, s, "prod-7"))
	})
}

// failingStore fails every Set of one key
type failingStore struct {
	store.IStore
	key string
}

func (f *failingStore) Set(key string, value []byte) error {
	if key == f.key {
		return store.NewError(store.RetCInternalError, "write refused")
	}
	return f.IStore.Set(key, value)
}

func TestCreateOrderFailedWriteKeepsStock(t *testing.T) {
	s := seededShop(t, Config{})
	failing, err := New(Options{
		Store: &failingStore{IStore: s.Store(), key: s.Key(string(TableOrders))},
		Now:   func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = failing.Close() })

	_, err = failing.CreateOrder(context.Background(), order(item("prod-7", 3)))
	assert.ErrorIs(t, err, &store.Error{Code: store.RetCInternalError})

	assert.Equal(t, 10, stockOf(t, s, "prod-7"))
	orders, err := s.Orders.All()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.CreateOrder(context.Background(), order(item("prod-7", 1), item("prod-404", 1)))
	var vErr *catalog.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Has("items[1].productId"))
	assert.Equal(t, 10, stockOf(t, s, "prod-7"))
}

func TestCreateOrderInvalid(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.CreateOrder(context.Background(), catalog.Order{UserID: "user-1"})
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestConcurrentOrders(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateOrder(ctx, order(item("prod-7", 1)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 0, stockOf(t, s, "prod-7"))
	orders, err := s.Orders.All()
	require.NoError(t, err)
	assert.Len(t, orders, n)
}

func TestCreateOrderCanceledContext(t *testing.T) {
	s := seededShop(t, Config{})

	// hold the products lock so the order has to wait for it
	_, owner, err := s.locks.AcquireLock("lock:"+s.Key(string(TableProducts)), 1000)
	require.NoError(t, err)
	defer s.locks.ReleaseLock("lock:"+s.Key(string(TableProducts)), owner)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = s.CreateOrder(ctx, order(item("prod-7", 1)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 10, stockOf(t, s, "prod-7"))
}

func TestCheckout(t *testing.T) {
	s := seededShop(t, Config{})
	ctx := context.Background()

	created, err := s.Checkout(ctx, CheckoutRequest{
		UserID: "user-1",
		Items: []catalog.CartItem{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-5", Quantity: 1},
		},
		Address: catalog.Address{CEP: "01310100", Street: "Av. Paulista", Number: "1000", City: "São Paulo", State: "SP"},
		Shipping: shipping.Option{
			Service: shipping.ServicePAC, Price: decimal.RequireFromString("23"), DeadlineDays: 8,
		},
	})
	require.NoError(t, err)

	// sale price of prod-1, list price of prod-5
	assert.True(t, created.Items[0].UnitPrice.Equal(decimal.RequireFromString("3999.00")))
	assert.Equal(t, "Notebook Dell Inspiron 15", created.Items[0].NameSnapshot)
	assert.Equal(t, "DELL-INS15-I7", created.Items[0].SKUSnapshot)
	assert.True(t, created.Subtotal.Equal(decimal.RequireFromString("8647.90")), created.Subtotal.String())
	assert.True(t, created.Total.Equal(decimal.RequireFromString("8670.90")), created.Total.String())
	assert.Equal(t, catalog.PaymentPix, created.PaymentMethod)
	assert.Equal(t, shipping.ServicePAC, created.ShippingService)
	assert.Equal(t, 10, stockOf(t, s, "prod-1"))

	// the order keeps its snapshot after the product changes
	p, err := s.Products.Get("prod-1")
	require.NoError(t, err)
	p.Name = "Renamed"
	_, err = s.Products.Save(ctx, p)
	require.NoError(t, err)

	stored, err := s.Orders.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notebook Dell Inspiron 15", stored.Items[0].NameSnapshot)
}

func TestCheckoutInactiveProduct(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.Checkout(context.Background(), CheckoutRequest{
		UserID: "user-1",
		Items:  []catalog.CartItem{{ProductID: "prod-16", Quantity: 1}},
	})
	var vErr *catalog.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.Has("items[0].productId"))
}

func TestParseStockPolicy(t *testing.T) {
	p, err := ParseStockPolicy("")
	require.NoError(t, err)
	assert.Equal(t, StockAllowNegative, p)

	p, err = ParseStockPolicy("REJECT")
	require.NoError(t, err)
	assert.Equal(t, StockReject, p)

	_, err = ParseStockPolicy("backorder")
	assert.Error(t, err)
}

// --------------------------------------------------------------------------
// Settings and reports
// --------------------------------------------------------------------------

func TestStoreSettings(t *testing.T) {
	s := openShop(t, afero.NewMemMapFs(), Config{})
	defer s.Close()
	ctx := context.Background()

	// seed settings while the slot is absent
	settings, err := s.StoreSettings()
	require.NoError(t, err)
	assert.Equal(t, "Supritec Informática", settings.Name)

	settings.Phone = "(11) 4000-0000"
	require.NoError(t, s.SaveStoreSettings(ctx, settings))

	got, err := s.StoreSettings()
	require.NoError(t, err)
	assert.Equal(t, "(11) 4000-0000", got.Phone)

	settings.Email = "not an email"
	assert.ErrorIs(t, s.SaveStoreSettings(ctx, settings), catalog.ErrValidation)
}

func TestActiveBanner(t *testing.T) {
	s := seededShop(t, Config{})

	hero, err := s.ActiveBanner(catalog.PositionHero)
	require.NoError(t, err)
	b, ok := hero.Get()
	require.True(t, ok)
	assert.Equal(t, "ban-1", b.ID)

	require.NoError(t, s.Banners.Delete(context.Background(), "ban-1"))
	hero, err = s.ActiveBanner(catalog.PositionHero)
	require.NoError(t, err)
	assert.True(t, hero.IsAbsent(), "inactive banners are never shown")
}

func TestCheckReferences(t *testing.T) {
	s := seededShop(t, Config{})

	refs, err := s.CheckReferences()
	require.NoError(t, err)
	assert.Empty(t, refs)

	// deletes never cascade
	require.NoError(t, s.Categories.Delete(context.Background(), "cat-8"))
	refs, err = s.CheckReferences()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, catalog.DanglingRef{Entity: "product", ID: "prod-14", Field: "categoryId", Ref: "cat-8"}, refs[0])
	assert.Equal(t, "prod-15", refs[1].ID)
}

func TestSummary(t *testing.T) {
	s := seededShop(t, Config{})

	_, err := s.CreateOrder(context.Background(), order(item("prod-7", 2)))
	require.NoError(t, err)

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Orders)
	assert.True(t, sum.Revenue.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 16, sum.Products)
	assert.Equal(t, 15, sum.ActiveProducts)
	assert.Len(t, sum.LowStock, 5)
	assert.Equal(t, map[string]int{"PENDING": 1}, sum.OrdersByStatus)
}

// --------------------------------------------------------------------------
// Durability
// --------------------------------------------------------------------------

func TestReopenKeepsState(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	s := openShop(t, fs, Config{})
	_, err := s.Seed(ctx)
	require.NoError(t, err)
	created, err := s.CreateOrder(ctx, order(item("prod-7", 3)))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openShop(t, fs, Config{})
	defer s.Close()

	seeded, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Empty(t, seeded)

	_, err = s.Orders.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stockOf(t, s, "prod-7"))
}

func TestWritesAreFlushed(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openShop(t, fs, Config{})
	defer s.Close()

	_, err := s.Seed(context.Background())
	require.NoError(t, err)
	_, err = s.Brands.Save(context.Background(), catalog.Brand{Name: "Razer"})
	require.NoError(t, err)

	// a second process reading the file sees the write without Close
	other := openShop(t, fs, Config{})
	defer other.Close()
	brands, err := other.Brands.All()
	require.NoError(t, err)
	assert.Len(t, brands, 7)
}

func TestGobCodec(t *testing.T) {
	s := seededShop(t, Config{Codec: "gob"})

	created, err := s.CreateOrder(context.Background(), order(item("prod-1", 1)))
	require.NoError(t, err)

	got, err := s.Orders.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(10)))

	p, err := s.Products.Get("prod-1")
	require.NoError(t, err)
	require.NotNil(t, p.SalePrice)
	assert.True(t, p.SalePrice.Equal(decimal.RequireFromString("3999.00")))

	// a JSON reader can not decode gob slots
	other, err := New(Options{Store: s.Store(), Codec: nil})
	require.NoError(t, err)
	_, err = other.Products.All()
	assert.True(t, errors.Is(err, catalog.ErrStorageCorrupt))
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = Open(Config{Codec: "xml"})
	assert.Error(t, err)
}
