package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dShop/lib/catalog"
	"github.com/ValentinKolb/dShop/lib/shipping"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Stock policy
// --------------------------------------------------------------------------

// StockPolicy decides what CreateOrder does when an order asks for more
// units than a product has in stock. Only allow-negative lets Products.Save
// store a negative stock.
type StockPolicy string

const (
	// StockAllowNegative decrements unconditionally, stock may go negative (back orders)
	StockAllowNegative StockPolicy = "allow-negative"
	// StockReject fails the order with catalog.ErrInsufficientStock and writes nothing
	StockReject StockPolicy = "reject"
	// StockClamp decrements but never below zero
	StockClamp StockPolicy = "clamp"
)

// ParseStockPolicy parses a configuration value ("" = allow-negative).
func ParseStockPolicy(s string) (StockPolicy, error) {
	switch p := StockPolicy(strings.ToLower(s)); p {
	case "":
		return StockAllowNegative, nil
	case StockAllowNegative, StockReject, StockClamp:
		return p, nil
	default:
		return "", fmt.Errorf("unknown stock policy %q (must be allow-negative, reject or clamp)", s)
	}
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

// CreateOrder stores a new order and decrements the stock of every ordered
// product.
//
// The id, the creation time and the PENDING status are always assigned
// here, values set by the caller are replaced. Items referencing unknown
// products make the order invalid. The orders and products tables are
// locked together, so concurrent orders never lose a stock update.
func (s *Shop) CreateOrder(ctx context.Context, order catalog.Order) (catalog.Order, error) {
	order.ID = catalog.NewID("ord")
	order.CreatedAt = s.now()
	order.Status = catalog.StatusPending
	order = order.Normalize(order.CreatedAt)

	if err := order.Validate(); err != nil {
		ordersFailed.Inc()
		return catalog.Order{}, err
	}

	err := s.withLocks(ctx, func() error {
		products, err := s.Products.All()
		if err != nil {
			return err
		}
		if err := s.applyStock(products, order); err != nil {
			return err
		}

		orders, err := s.Orders.All()
		if err != nil {
			return err
		}
		// stock first: a failed order write restores it
		return writeSlots(s,
			slotValue{string(TableProducts), products},
			slotValue{string(TableOrders), append(orders, order)},
		)
	}, string(TableOrders), string(TableProducts))
	if err != nil {
		ordersFailed.Inc()
		return catalog.Order{}, err
	}

	ordersCreated.Inc()
	log.Infof("created order %s (%d items, total %s)", order.ID, len(order.Items), order.Total)
	return order, nil
}

// applyStock decrements the stock of products in place according to the
// stock policy. On error products is left unchanged.
func (s *Shop) applyStock(products []catalog.Product, order catalog.Order) error {
	ordered := map[string]int{}
	for _, item := range order.Items {
		ordered[item.ProductID] += item.Quantity
	}

	index := map[string]int{}
	for i, p := range products {
		if _, seen := index[p.ID]; !seen {
			index[p.ID] = i
		}
	}

	var missing []catalog.FieldError
	for i, item := range order.Items {
		if _, ok := index[item.ProductID]; !ok {
			missing = append(missing, catalog.FieldError{
				Field: fmt.Sprintf("items[%d].productId", i),
				Msg:   fmt.Sprintf("product %q does not exist", item.ProductID),
			})
		}
	}
	if len(missing) > 0 {
		return &catalog.ValidationError{Entity: "order", Fields: missing}
	}

	if s.policy == StockReject {
		for _, id := range lo.Keys(ordered) {
			p := products[index[id]]
			if p.Stock < ordered[id] {
				return fmt.Errorf("%w: product %s has %d units, order needs %d", catalog.ErrInsufficientStock, id, p.Stock, ordered[id])
			}
		}
	}

	for id, qty := range ordered {
		p := &products[index[id]]
		next := p.Stock - qty
		switch {
		case next < 0 && s.policy == StockClamp:
			stockClamped.Inc()
			next = 0
		case next < 0:
			stockNegative.Inc()
			log.Warningf("stock of %s goes negative (%d) with order %s", id, next, order.ID)
		}
		p.Stock = next
	}
	return nil
}

// --------------------------------------------------------------------------
// Checkout
// --------------------------------------------------------------------------

// CheckoutRequest is a cart ready to become an order
type CheckoutRequest struct {
	UserID        string
	Items         []catalog.CartItem
	Address       catalog.Address
	Shipping      shipping.Option
	PaymentMethod catalog.PaymentMethod
}

// Checkout builds an order from cart items and creates it. Name, SKU and the
// effective price (sale price if set) of every product are copied into the
// order items, so later product edits do not change the order.
func (s *Shop) Checkout(ctx context.Context, req CheckoutRequest) (catalog.Order, error) {
	products, err := s.Products.All()
	if err != nil {
		return catalog.Order{}, err
	}
	byID := lo.KeyBy(products, func(p catalog.Product) string { return p.ID })

	var invalid []catalog.FieldError
	items := make([]catalog.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for i, ci := range req.Items {
		p, ok := byID[ci.ProductID]
		if !ok || !p.Active {
			invalid = append(invalid, catalog.FieldError{
				Field: fmt.Sprintf("items[%d].productId", i),
				Msg:   fmt.Sprintf("product %q is not available", ci.ProductID),
			})
			continue
		}
		item := catalog.OrderItem{
			ProductID:    p.ID,
			NameSnapshot: p.Name,
			SKUSnapshot:  p.SKU,
			UnitPrice:    p.EffectivePrice(),
			Quantity:     ci.Quantity,
		}
		subtotal = subtotal.Add(item.LineTotal())
		items = append(items, item)
	}
	if len(invalid) > 0 {
		return catalog.Order{}, &catalog.ValidationError{Entity: "order", Fields: invalid}
	}

	method := req.PaymentMethod
	if method == "" {
		method = catalog.PaymentPix
	}

	return s.CreateOrder(ctx, catalog.Order{
		UserID:                  req.UserID,
		Subtotal:                subtotal,
		ShippingCost:            req.Shipping.Price,
		Total:                   subtotal.Add(req.Shipping.Price),
		PaymentMethod:           method,
		PaymentStatus:           "pending",
		ShippingService:         req.Shipping.Service,
		ShippingDeadlineDays:    req.Shipping.DeadlineDays,
		ShippingAddressSnapshot: req.Address,
		Items:                   items,
	})
}
