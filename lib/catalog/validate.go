package catalog

import (
	"fmt"
	"net/mail"
)

func (p Product) Validate() error {
	v := newValidator("product")
	v.required(p.Name, "name")
	v.required(p.CategoryID, "categoryId")
	v.required(p.SKU, "sku")
	v.check(p.Price.IsPositive(), "price", "must be greater than 0")
	if p.SalePrice != nil {
		v.check(p.SalePrice.IsPositive(), "salePrice", "must be greater than 0")
		v.check(p.SalePrice.LessThanOrEqual(p.Price), "salePrice", "must not exceed price")
	}
	v.check(p.Weight >= 0, "weight", "must not be negative")
	v.check(p.Width >= 0 && p.Height >= 0 && p.Length >= 0, "dimensions", "must not be negative")
	return v.err()
}

// CheckStock rejects a negative stock. Validate accepts one because orders
// may oversell a product; stores that forbid overselling call CheckStock too.
func (p Product) CheckStock() error {
	v := newValidator("product")
	v.check(p.Stock >= 0, "stock", "must not be negative")
	return v.err()
}

func (d Department) Validate() error {
	v := newValidator("department")
	v.required(d.Name, "name")
	v.required(d.Slug, "slug")
	v.check(d.Order >= 0, "order", "must not be negative")
	return v.err()
}

func (c Category) Validate() error {
	v := newValidator("category")
	v.required(c.Name, "name")
	v.required(c.Slug, "slug")
	v.required(c.DepartmentID, "departmentId")
	v.check(c.Order >= 0, "order", "must not be negative")
	return v.err()
}

func (b Brand) Validate() error {
	v := newValidator("brand")
	v.required(b.Name, "name")
	v.required(b.Slug, "slug")
	return v.err()
}

func (b Banner) Validate() error {
	v := newValidator("banner")
	v.check(b.Position.Valid(), "position", fmt.Sprintf("unknown position %q", b.Position))
	v.required(b.Title, "title")
	v.required(b.ImageURL, "imageUrl")
	v.check(b.Order >= 0, "order", "must not be negative")
	return v.err()
}

func (u User) Validate() error {
	v := newValidator("user")
	v.required(u.Name, "name")
	_, err := mail.ParseAddress(u.Email)
	v.check(err == nil, "email", "is not a valid address")
	v.check(u.Role.Valid(), "role", fmt.Sprintf("unknown role %q", u.Role))
	return v.err()
}

func (a Address) Validate() error {
	v := newValidator("address")
	v.check(len(a.CEP) == 8 && NormalizeCEP(a.CEP) == a.CEP, "cep", "must have 8 digits")
	v.required(a.Street, "street")
	v.required(a.Number, "number")
	v.required(a.City, "city")
	v.check(len(a.State) == 2, "state", "must be a two letter UF")
	return v.err()
}

func (o Order) Validate() error {
	v := newValidator("order")
	v.required(o.UserID, "userId")
	v.check(o.Status.Valid(), "status", fmt.Sprintf("unknown status %q", o.Status))
	v.check(o.PaymentMethod == "" || o.PaymentMethod.Valid(), "paymentMethod", fmt.Sprintf("unknown payment method %q", o.PaymentMethod))
	v.check(len(o.Items) > 0, "items", "must not be empty")
	for i, item := range o.Items {
		field := fmt.Sprintf("items[%d]", i)
		v.required(item.ProductID, field+".productId")
		v.check(item.Quantity > 0, field+".quantity", "must be greater than 0")
		v.check(!item.UnitPrice.IsNegative(), field+".unitPrice", "must not be negative")
	}
	v.check(!o.Subtotal.IsNegative(), "subtotal", "must not be negative")
	v.check(!o.ShippingCost.IsNegative(), "shippingCost", "must not be negative")
	v.check(!o.Total.IsNegative(), "total", "must not be negative")
	v.check(o.ShippingDeadlineDays >= 0, "shippingDeadlineDays", "must not be negative")
	return v.err()
}

func (s StoreSettings) Validate() error {
	v := newValidator("settings")
	v.required(s.Name, "name")
	_, err := mail.ParseAddress(s.Email)
	v.check(err == nil, "email", "is not a valid address")
	v.check(s.Address.State == "" || len(s.Address.State) == 2, "address.state", "must be a two letter UF")
	return v.err()
}
