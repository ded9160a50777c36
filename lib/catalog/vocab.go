package catalog

// OrderStatus is the status code stored with an order. Any status can be
// set at any time, transitions are not enforced.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusPreparing OrderStatus = "PREPARING"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var statusLabels = map[OrderStatus]string{
	StatusPending:   "Aguardando pagamento",
	StatusPaid:      "Pago",
	StatusPreparing: "Em separação",
	StatusShipped:   "Enviado",
	StatusDelivered: "Entregue",
	StatusCancelled: "Cancelado",
}

// OrderStatuses lists the statuses in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusPending, StatusPaid, StatusPreparing, StatusShipped, StatusDelivered, StatusCancelled,
}

// Label returns the display label shown to customers.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

type BannerPosition string

const (
	PositionHero       BannerPosition = "hero"
	PositionSecondary1 BannerPosition = "secondary_1"
	PositionSecondary2 BannerPosition = "secondary_2"
)

func (p BannerPosition) Valid() bool {
	switch p {
	case PositionHero, PositionSecondary1, PositionSecondary2:
		return true
	}
	return false
}

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentBoleto     PaymentMethod = "boleto"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPix, PaymentCreditCard, PaymentBoleto:
		return true
	}
	return false
}
