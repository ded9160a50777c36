package seed

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultYAML []byte

// Dataset holds the default contents of every slot
type Dataset struct {
	Departments []catalog.Department
	Categories  []catalog.Category
	Brands      []catalog.Brand
	Products    []catalog.Product
	Banners     []catalog.Banner
	Users       []catalog.User
	Orders      []catalog.Order
	Addresses   []catalog.Address
	Settings    catalog.StoreSettings
}

// product is the yaml shape of a product. Prices are quoted strings so
// they never pass through a float.
type product struct {
	ID          string    `yaml:"id"`
	CategoryID  string    `yaml:"categoryId"`
	BrandID     string    `yaml:"brandId"`
	Name        string    `yaml:"name"`
	Slug        string    `yaml:"slug"`
	Description string    `yaml:"description"`
	Specs       string    `yaml:"specs"`
	Price       string    `yaml:"price"`
	SalePrice   string    `yaml:"salePrice"`
	SKU         string    `yaml:"sku"`
	Stock       int       `yaml:"stock"`
	Weight      float64   `yaml:"weight"`
	Width       float64   `yaml:"width"`
	Height      float64   `yaml:"height"`
	Length      float64   `yaml:"length"`
	Featured    bool      `yaml:"featured"`
	Active      bool      `yaml:"active"`
	Images      []string  `yaml:"images"`
	CreatedAt   time.Time `yaml:"createdAt"`
}

type document struct {
	Departments []catalog.Department  `yaml:"departments"`
	Categories  []catalog.Category    `yaml:"categories"`
	Brands      []catalog.Brand       `yaml:"brands"`
	Products    []product             `yaml:"products"`
	Banners     []catalog.Banner      `yaml:"banners"`
	Users       []catalog.User        `yaml:"users"`
	Settings    catalog.StoreSettings `yaml:"settings"`
}

// Default parses the embedded dataset. Every call returns fresh slices.
func Default() (*Dataset, error) {
	return Parse(defaultYAML)
}

// Parse reads a dataset in the seed yaml format. Orders and addresses
// always start empty.
func Parse(data []byte) (*Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	products := make([]catalog.Product, len(doc.Products))
	for i, p := range doc.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("seed product %s: price: %w", p.ID, err)
		}
		var sale *decimal.Decimal
		if p.SalePrice != "" {
			d, err := decimal.NewFromString(p.SalePrice)
			if err != nil {
				return nil, fmt.Errorf("seed product %s: salePrice: %w", p.ID, err)
			}
			sale = &d
		}
		images := p.Images
		if images == nil {
			images = []string{}
		}
		products[i] = catalog.Product{
			ID:          p.ID,
			CategoryID:  p.CategoryID,
			BrandID:     p.BrandID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Specs:       p.Specs,
			Price:       price,
			SalePrice:   sale,
			SKU:         p.SKU,
			Stock:       p.Stock,
			Weight:      p.Weight,
			Width:       p.Width,
			Height:      p.Height,
			Length:      p.Length,
			Featured:    p.Featured,
			Active:      p.Active,
			Images:      images,
			CreatedAt:   p.CreatedAt,
		}
	}

	return &Dataset{
		Departments: nonNil(doc.Departments),
		Categories:  nonNil(doc.Categories),
		Brands:      nonNil(doc.Brands),
		Products:    products,
		Banners:     nonNil(doc.Banners),
		Users:       nonNil(doc.Users),
		Orders:      []catalog.Order{},
		Addresses:   []catalog.Address{},
		Settings:    doc.Settings,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
