package export

import (
	"time"

	"github.com/ValentinKolb/dShop/lib/catalog"
)

// OrderSchema is the Avro schema of one exported order. Money is written as
// decimal strings so no value passes through a float.
const OrderSchema = `{
	"type": "record",
	"namespace": "br.com.supritec",
	"name": "order",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "user_id", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "subtotal", "type": "string"},
		{"name": "shipping_cost", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "payment_method", "type": "string"},
		{"name": "payment_status", "type": "string"},
		{"name": "shipping_service", "type": "string"},
		{"name": "shipping_deadline_days", "type": "int"},
		{"name": "cep", "type": "string"},
		{"name": "city", "type": "string"},
		{"name": "state", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "items", "type": {"type": "array", "items": {
			"type": "record",
			"name": "order_item",
			"fields": [
				{"name": "product_id", "type": "string"},
				{"name": "name", "type": "string"},
				{"name": "sku", "type": "string"},
				{"name": "unit_price", "type": "string"},
				{"name": "quantity", "type": "int"}
			]
		}}}
	]
}`

type (
	OrderV1 struct {
		ID                   string        `avro:"id"`
		UserID               string        `avro:"user_id"`
		Status               string        `avro:"status"`
		Subtotal             string        `avro:"subtotal"`
		ShippingCost         string        `avro:"shipping_cost"`
		Total                string        `avro:"total"`
		PaymentMethod        string        `avro:"payment_method"`
		PaymentStatus        string        `avro:"payment_status"`
		ShippingService      string        `avro:"shipping_service"`
		ShippingDeadlineDays int           `avro:"shipping_deadline_days"`
		CEP                  string        `avro:"cep"`
		City                 string        `avro:"city"`
		State                string        `avro:"state"`
		CreatedAt            time.Time     `avro:"created_at"`
		Items                []OrderItemV1 `avro:"items"`
	}

	OrderItemV1 struct {
		ProductID string `avro:"product_id"`
		Name      string `avro:"name"`
		SKU       string `avro:"sku"`
		UnitPrice string `avro:"unit_price"`
		Quantity  int    `avro:"quantity"`
	}
)

// FromOrder converts an order to its export record
func FromOrder(o catalog.Order) OrderV1 {
	items := make([]OrderItemV1, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemV1{
			ProductID: item.ProductID,
			Name:      item.NameSnapshot,
			SKU:       item.SKUSnapshot,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
		}
	}
	return OrderV1{
		ID:                   o.ID,
		UserID:               o.UserID,
		Status:               string(o.Status),
		Subtotal:             o.Subtotal.String(),
		ShippingCost:         o.ShippingCost.String(),
		Total:                o.Total.String(),
		PaymentMethod:        string(o.PaymentMethod),
		PaymentStatus:        o.PaymentStatus,
		ShippingService:      o.ShippingService,
		ShippingDeadlineDays: o.ShippingDeadlineDays,
		CEP:                  o.ShippingAddressSnapshot.CEP,
		City:                 o.ShippingAddressSnapshot.City,
		State:                o.ShippingAddressSnapshot.State,
		CreatedAt:            o.CreatedAt.UTC().Truncate(time.Millisecond),
		Items:                items,
	}
}
