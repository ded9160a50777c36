package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/codec"
	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/maple"
	"github.com/ValentinKolb/dShop/lib/lockmgr"
	"github.com/ValentinKolb/dShop/lib/seed"
	"github.com/ValentinKolb/dShop/lib/store"
	"github.com/ValentinKolb/dShop/lib/store/lstore"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var log = logger.GetLogger("shop")

// --------------------------------------------------------------------------
// Storage layout
// --------------------------------------------------------------------------

// Table is the name of a table slot
type Table string

const (
	TableDepartments Table = "departments"
	TableCategories  Table = "categories"
	TableBrands      Table = "brands"
	TableProducts    Table = "products"
	TableBanners     Table = "banners"
	TableUsers       Table = "users"
	TableOrders      Table = "orders"
	TableAddresses   Table = "addresses"

	// SettingsSlot holds the store settings object
	SettingsSlot = "settings"

	// DefaultKeyPrefix is prepended to every slot name
	DefaultKeyPrefix = "supritec_"
	// DefaultLockTimeout is the lock lifetime in lock store writes
	DefaultLockTimeout uint64 = 10_000
	// LowStockThreshold marks products with fewer units as low on stock
	LowStockThreshold = 5
)

// Tables lists all tables in seeding order
var Tables = []Table{
	TableDepartments, TableCategories, TableBrands, TableProducts,
	TableBanners, TableUsers, TableOrders, TableAddresses,
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// Options configures a Shop built on existing stores
type Options struct {
	Store       store.IStore         // Data store, owned by the shop afterwards (required)
	Locks       lockmgr.ILockManager // Table locks (nil = memory only lock store)
	Codec       codec.ICodec         // Slot codec (nil = JSON)
	KeyPrefix   string               // Slot prefix ("" = DefaultKeyPrefix)
	StockPolicy StockPolicy          // Stock behaviour of CreateOrder ("" = allow-negative)
	LockTimeout uint64               // Lock lifetime in lock store writes (0 = DefaultLockTimeout)
	Seed        *seed.Dataset        // Seed data (nil = embedded default)
	Now         func() time.Time     // Clock (nil = time.Now)
}

// Config configures Open
type Config struct {
	DataFile    string   // Snapshot file ("" = memory only)
	Fs          afero.Fs // Filesystem of the snapshot (nil = OS filesystem)
	Shards      int      // Engine shards (0 = number of CPUs)
	Codec       string   // json or gob
	KeyPrefix   string
	StockPolicy StockPolicy
	LockTimeout uint64
}

// Shop is the persistent store of the storefront. It is safe for
// concurrent use: reads decode a slot snapshot, writes run under the lock
// of the table they rewrite.
type Shop struct {
	Departments ITable[catalog.Department]
	Categories  ITable[catalog.Category]
	Brands      ITable[catalog.Brand]
	Products    ITable[catalog.Product]
	Banners     ITable[catalog.Banner]
	Users       ITable[catalog.User]
	Orders      ITable[catalog.Order]
	Addresses   ITable[catalog.Address]

	store       store.IStore
	lockStore   store.IStore // only set if the shop created it
	locks       lockmgr.ILockManager
	codec       codec.ICodec
	prefix      string
	policy      StockPolicy
	lockTimeout uint64
	seed        *seed.Dataset
	now         func() time.Time
	raw         map[Table]IRawTable
}

// Open creates the engine and the local store for cfg, loads the snapshot
// file if there is one and returns the shop. Call Seed to fill absent slots
// and Close to write the snapshot.
func Open(cfg Config) (*Shop, error) {
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	factory := func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: cfg.Shards})
	}
	data, err := lstore.OpenLocalStore(factory, lstore.Options{Fs: cfg.Fs, Path: cfg.DataFile})
	if err != nil {
		return nil, err
	}

	s, err := New(Options{
		Store:       data,
		Codec:       c,
		KeyPrefix:   cfg.KeyPrefix,
		StockPolicy: cfg.StockPolicy,
		LockTimeout: cfg.LockTimeout,
	})
	if err != nil {
		_ = data.Close()
		return nil, err
	}
	return s, nil
}

// New creates a shop on top of opts.Store.
func New(opts Options) (*Shop, error) {
	if opts.Store == nil {
		return nil, errors.New("shop: a store is required")
	}
	policy, err := ParseStockPolicy(string(opts.StockPolicy))
	if err != nil {
		return nil, err
	}

	s := &Shop{
		store:       opts.Store,
		locks:       opts.Locks,
		codec:       opts.Codec,
		prefix:      opts.KeyPrefix,
		policy:      policy,
		lockTimeout: opts.LockTimeout,
		seed:        opts.Seed,
		now:         opts.Now,
	}
	if s.codec == nil {
		s.codec = codec.NewJSONCodec()
	}
	if s.prefix == "" {
		s.prefix = DefaultKeyPrefix
	}
	if s.lockTimeout == 0 {
		s.lockTimeout = DefaultLockTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.seed == nil {
		if s.seed, err = seed.Default(); err != nil {
			return nil, err
		}
	}
	if s.locks == nil {
		s.lockStore = lstore.NewLocalStore(func() db.KVDB {
			return maple.NewMapleDB(&maple.DBOptions{NumShards: 1})
		})
		s.locks = lockmgr.NewLockManager(s.lockStore)
	}

	departments := newTable[catalog.Department](s, TableDepartments)
	categories := newTable[catalog.Category](s, TableCategories)
	brands := newTable[catalog.Brand](s, TableBrands)
	products := newTable[catalog.Product](s, TableProducts)
	if s.policy != StockAllowNegative {
		products.check = catalog.Product.CheckStock
	}
	banners := newTable[catalog.Banner](s, TableBanners)
	users := newTable[catalog.User](s, TableUsers)
	orders := newTable[catalog.Order](s, TableOrders)
	addresses := newTable[catalog.Address](s, TableAddresses)

	s.Departments, s.Categories, s.Brands, s.Products = departments, categories, brands, products
	s.Banners, s.Users, s.Orders, s.Addresses = banners, users, orders, addresses
	s.raw = map[Table]IRawTable{
		TableDepartments: departments,
		TableCategories:  categories,
		TableBrands:      brands,
		TableProducts:    products,
		TableBanners:     banners,
		TableUsers:       users,
		TableOrders:      orders,
		TableAddresses:   addresses,
	}

	log.Debugf("shop ready (prefix %q, codec %s, stock policy %s)", s.prefix, s.codec.Name(), s.policy)
	return s, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// Key returns the storage key of a slot
func (s *Shop) Key(slot string) string {
	return s.prefix + slot
}

// Store returns the underlying data store
func (s *Shop) Store() store.IStore {
	return s.store
}

// Now returns the time of the shop clock
func (s *Shop) Now() time.Time {
	return s.now()
}

// StockPolicy returns the configured stock policy
func (s *Shop) StockPolicy() StockPolicy {
	return s.policy
}

// Table returns the untyped view of a table by name.
func (s *Shop) Table(name string) (IRawTable, error) {
	t, ok := s.raw[Table(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownTable, name)
	}
	return t, nil
}

// withLocks runs fn while holding the locks of the given slots.
func (s *Shop) withLocks(ctx context.Context, fn func() error, slots ...string) error {
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = "lock:" + s.Key(slot)
	}
	return lockmgr.WithLocks(ctx, s.locks, keys, s.lockTimeout, fn)
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Seed writes the seed value to every absent slot. Existing slots are never
// overwritten, so Seed is idempotent. It returns the seeded slot names.
func (s *Shop) Seed(ctx context.Context) ([]string, error) {
	values := []slotValue{
		{string(TableDepartments), s.seed.Departments},
		{string(TableCategories), s.seed.Categories},
		{string(TableBrands), s.seed.Brands},
		{string(TableProducts), s.seed.Products},
		{string(TableBanners), s.seed.Banners},
		{string(TableUsers), s.seed.Users},
		{string(TableOrders), s.seed.Orders},
		{string(TableAddresses), s.seed.Addresses},
		{SettingsSlot, s.seed.Settings},
	}

	var seeded []string
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return seeded, err
		}
		exists, err := s.store.Has(s.Key(v.slot))
		if err != nil {
			return seeded, err
		}
		if exists {
			continue
		}
		data, err := s.codec.Marshal(v.value)
		if err != nil {
			return seeded, fmt.Errorf("encode seed %s: %w", v.slot, err)
		}
		if err := s.store.SetEIfUnset(s.Key(v.slot), data, 0, 0); err != nil {
			return seeded, err
		}
		seeded = append(seeded, v.slot)
	}

	if len(seeded) > 0 {
		log.Infof("seeded %d slots: %v", len(seeded), seeded)
		return seeded, s.store.Flush()
	}
	return seeded, nil
}

// Flush writes the snapshot if the store is durable.
func (s *Shop) Flush() error {
	return s.store.Flush()
}

// Close flushes and closes the data store and the lock store.
func (s *Shop) Close() error {
	err := s.store.Close()
	if s.lockStore != nil {
		err = errors.Join(err, s.lockStore.Close())
	}
	return err
}
