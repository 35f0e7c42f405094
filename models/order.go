package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
}

// orderTransitions is the forward lifecycle. Cancellation is allowed from any
// state before delivery and is handled in CanTransitionTo.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed},
	StatusConfirmed:      {StatusPreparing},
	StatusPreparing:      {StatusReady},
	StatusReady:          {StatusOutForDelivery, StatusDelivered},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusCompleted},
}

// Valid reports whether s is one of the enumerated statuses
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is an adjacent step of the lifecycle
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return s != StatusDelivered
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderType distinguishes delivery from pickup
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// Valid reports whether t is delivery or pickup
func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypePickup
}

// PaymentStatus tracks payment bookkeeping; no payment is processed here
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is one of the enumerated payment statuses
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order represents a customer order placed through checkout
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;size:20;not null;<-:create" json:"order_number"` // assigned once, never updated
	CustomerName    string          `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"size:254" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:20;not null" json:"customer_phone"`
	OrderType       OrderType       `gorm:"size:20;not null;default:'delivery'" json:"order_type"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address"`
	Status          OrderStatus     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DeliveryFee     decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"delivery_fee"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"` // snapshot taken at creation
	SpecialNotes    string          `gorm:"type:text" json:"special_notes"`
	EstimatedTime   *int            `json:"estimated_time"` // nullable, minutes
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderTracking is the public view of an order. It leaves out the customer's
// contact details, address and notes.
type OrderTracking struct {
	OrderNumber   string              `json:"order_number"`
	OrderType     OrderType           `json:"order_type"`
	Status        OrderStatus         `json:"status"`
	Items         []OrderTrackingLine `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DeliveryFee   decimal.Decimal     `json:"delivery_fee"`
	Total         decimal.Decimal     `json:"total"`
	EstimatedTime *int                `json:"estimated_time"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderTrackingLine is one line of an OrderTracking
type OrderTrackingLine struct {
	MenuItemName string          `json:"menu_item_name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// Tracking returns the public view of o
func (o Order) Tracking() OrderTracking {
	lines := make([]OrderTrackingLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, OrderTrackingLine{
			MenuItemName: item.MenuItemName,
			Quantity:     item.Quantity,
			Price:        item.Price,
		})
	}
	return OrderTracking{
		OrderNumber:   o.OrderNumber,
		OrderType:     o.OrderType,
		Status:        o.Status,
		Items:         lines,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Total:         o.Total,
		EstimatedTime: o.EstimatedTime,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// OrderItem is one line of an order. Price is the unit price captured when the
// order was placed and does not follow later catalog changes.
type OrderItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID          uint            `gorm:"not null;index" json:"menu_item_id"`
	MenuItem            *MenuItem       `gorm:"foreignKey:MenuItemID;constraint:OnDelete:RESTRICT" json:"-"`
	MenuItemName        string          `gorm:"size:200;not null" json:"menu_item_name"` // name snapshot
	Quantity            int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price               decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	CreatedAt           time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is quantity × captured unit price
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
