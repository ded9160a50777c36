package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is implemented by every entity stored in a table. Normalize fills
// the derived fields of a record that is about to be saved. Slugs are always
// derived from the name.
type Record[T any] interface {
	GetID() string
	Normalize(now time.Time) T
	Validate() error
}

// --------------------------------------------------------------------------
// Catalogue
// --------------------------------------------------------------------------

type Product struct {
	ID          string           `json:"id"`
	CategoryID  string           `json:"categoryId"`
	BrandID     string           `json:"brandId"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Specs       string           `json:"specs"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice,omitempty"`
	SKU         string           `json:"sku"`
	Stock       int              `json:"stock"`
	Weight      float64          `json:"weight"` // kg
	Width       float64          `json:"width"`  // cm
	Height      float64          `json:"height"` // cm
	Length      float64          `json:"length"` // cm
	Featured    bool             `json:"featured"`
	Active      bool             `json:"active"`
	Images      []string         `json:"images"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// EffectivePrice is the sale price if one is set, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// InStock reports whether at least one unit is available
func (p Product) InStock() bool { return p.Stock > 0 }

type Department struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Slug   string `json:"slug" yaml:"slug"`
	Order  int    `json:"order" yaml:"order"`
	Active bool   `json:"active" yaml:"active"`
}

type Category struct {
	ID           string `json:"id" yaml:"id"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
	Name         string `json:"name" yaml:"name"`
	Slug         string `json:"slug" yaml:"slug"`
	Order        int    `json:"order" yaml:"order"`
	Active       bool   `json:"active" yaml:"active"`
}

type Brand struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

type Banner struct {
	ID       string         `json:"id" yaml:"id"`
	Position BannerPosition `json:"position" yaml:"position"`
	Title    string         `json:"title" yaml:"title"`
	Subtitle string         `json:"subtitle" yaml:"subtitle"`
	ImageURL string         `json:"imageUrl" yaml:"imageUrl"`
	LinkURL  string         `json:"linkUrl" yaml:"linkUrl"`
	Order    int            `json:"order" yaml:"order"`
	Active   bool           `json:"active" yaml:"active"`
}

// --------------------------------------------------------------------------
// Customers and orders
// --------------------------------------------------------------------------

type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      UserRole  `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type Address struct {
	ID           string `json:"id" yaml:"id"`
	UserID       string `json:"userId" yaml:"userId"`
	CEP          string `json:"cep" yaml:"cep"`
	Street       string `json:"street" yaml:"street"`
	Number       string `json:"number" yaml:"number"`
	Complement   string `json:"complement,omitempty" yaml:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	Primary      bool   `json:"primary" yaml:"primary"`
}

type Order struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"userId"`
	Status                  OrderStatus     `json:"status"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	ShippingCost            decimal.Decimal `json:"shippingCost"`
	Total                   decimal.Decimal `json:"total"`
	PaymentMethod           PaymentMethod   `json:"paymentMethod"`
	PaymentStatus           string          `json:"paymentStatus"`
	Gateway                 string          `json:"gateway"`
	GatewayTransactionID    string          `json:"gatewayTransactionId"`
	ShippingService         string          `json:"shippingService"`
	ShippingDeadlineDays    int             `json:"shippingDeadlineDays"`
	ShippingAddressSnapshot Address         `json:"shippingAddressSnapshot"`
	TrackingCode            string          `json:"trackingCode,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	Items                   []OrderItem     `json:"items"`
}

// OrderItem copies name, SKU and price of the product at order time
type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"orderId"`
	ProductID    string          `json:"productId"`
	NameSnapshot string          `json:"nameSnapshot"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	SKUSnapshot  string          `json:"skuSnapshot"`
}

// LineTotal is unit price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItem lives only in memory until checkout
type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Product   *Product        `json:"product,omitempty"`
}

// --------------------------------------------------------------------------
// Store settings
// --------------------------------------------------------------------------

type StoreSettings struct {
	Name         string       `json:"name" yaml:"name"`
	LogoURL      string       `json:"logoUrl" yaml:"logoUrl"`
	Email        string       `json:"email" yaml:"email"`
	Phone        string       `json:"phone" yaml:"phone"`
	WhatsApp     string       `json:"whatsapp,omitempty" yaml:"whatsapp,omitempty"`
	Address      StoreAddress `json:"address" yaml:"address"`
	OpeningHours string       `json:"openingHours" yaml:"openingHours"`
	Socials      Socials      `json:"socials" yaml:"socials"`
}

type StoreAddress struct {
	Street       string `json:"street" yaml:"street"`
	Number       string `json:"number" yaml:"number"`
	Complement   string `json:"complement,omitempty" yaml:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	Zip          string `json:"zip" yaml:"zip"`
}

type Socials struct {
	Facebook  string `json:"facebook,omitempty" yaml:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" yaml:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty" yaml:"twitter,omitempty"`
	YouTube   string `json:"youtube,omitempty" yaml:"youtube,omitempty"`
}

// --------------------------------------------------------------------------
// Record implementations
// --------------------------------------------------------------------------

func (p Product) GetID() string    { return p.ID }
func (d Department) GetID() string { return d.ID }
func (c Category) GetID() string   { return c.ID }
func (b Brand) GetID() string      { return b.ID }
func (b Banner) GetID() string     { return b.ID }
func (u User) GetID() string       { return u.ID }
func (a Address) GetID() string    { return a.ID }
func (o Order) GetID() string      { return o.ID }

func (p Product) Normalize(now time.Time) Product {
	p.ID = idOrNew(p.ID, "prod")
	p.Slug = Slugify(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

func (d Department) Normalize(time.Time) Department {
	d.ID = idOrNew(d.ID, "dep")
	d.Slug = Slugify(d.Name)
	return d
}

func (c Category) Normalize(time.Time) Category {
	c.ID = idOrNew(c.ID, "cat")
	c.Slug = Slugify(c.Name)
	return c
}

func (b Brand) Normalize(time.Time) Brand {
	b.ID = idOrNew(b.ID, "brand")
	b.Slug = Slugify(b.Name)
	return b
}

func (b Banner) Normalize(time.Time) Banner {
	b.ID = idOrNew(b.ID, "ban")
	return b
}

func (u User) Normalize(now time.Time) User {
	u.ID = idOrNew(u.ID, "user")
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return u
}

func (a Address) Normalize(time.Time) Address {
	a.ID = idOrNew(a.ID, "addr")
	a.CEP = NormalizeCEP(a.CEP)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	return a
}

// Normalize fills the order id, the item ids and the item order ids.
// Status and totals are left to the caller.
func (o Order) Normalize(now time.Time) Order {
	o.ID = idOrNew(o.ID, "ord")
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.ID = idOrNew(item.ID, "item")
		item.OrderID = o.ID
		items[i] = item
	}
	o.Items = items
	return o
}

func idOrNew(id, prefix string) string {
	if id != "" {
		return id
	}
	return NewID(prefix)
}
