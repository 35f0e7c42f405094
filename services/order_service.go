package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/kendall-kelly/chillas-api/metrics"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// OrderPageSize is the admin order list page size
	OrderPageSize = 15

	maxOrderNumberAttempts = 5
)

// NewOrderNumber returns a human-readable order number such as ORD-1A2B3C4D
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// OrderService places orders, moves them through their lifecycle and keeps
// the order ledger.
type OrderService struct {
	db                *gorm.DB
	strictTransitions bool
	newOrderNumber    func() string
}

// OrderOption configures an OrderService
type OrderOption func(*OrderService)

// WithStrictTransitions rejects status changes that skip lifecycle steps
func WithStrictTransitions(strict bool) OrderOption {
	return func(s *OrderService) {
		s.strictTransitions = strict
	}
}

// WithOrderNumberGenerator replaces the order number generator
func WithOrderNumberGenerator(fn func() string) OrderOption {
	return func(s *OrderService) {
		s.newOrderNumber = fn
	}
}

// NewOrderService creates an order service backed by db
func NewOrderService(db *gorm.DB, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:             db,
		newOrderNumber: NewOrderNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderLineInput is one requested line of a new order
type OrderLineInput struct {
	MenuItemID          uint
	Quantity            int
	SpecialInstructions string
}

// CreateOrderInput carries everything checkout collects
type CreateOrderInput struct {
	OrderNumber     string // optional; generated when empty
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	OrderType       models.OrderType
	DeliveryAddress string
	SpecialNotes    string
	EstimatedTime   *int
	DeliveryFee     *decimal.Decimal // optional; derived from site settings when nil
	Items           []OrderLineInput
}

func (in *CreateOrderInput) normalize() {
	in.OrderNumber = strings.ToUpper(strings.TrimSpace(in.OrderNumber))
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if in.OrderType == "" {
		in.OrderType = models.OrderTypeDelivery
	}
}

func (in CreateOrderInput) validate() error {
	if in.CustomerName == "" {
		return invalid("customer_name", "is required")
	}
	if in.CustomerPhone == "" {
		return invalid("customer_phone", "is required")
	}
	if !in.OrderType.Valid() {
		return invalid("order_type", "must be delivery or pickup")
	}
	if in.OrderType == models.OrderTypeDelivery && in.DeliveryAddress == "" {
		return invalid("delivery_address", "is required for delivery orders")
	}
	if len(in.Items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, line := range in.Items {
		if line.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
	}
	if in.DeliveryFee != nil && in.DeliveryFee.IsNegative() {
		return invalid("delivery_fee", "must not be negative")
	}
	if in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		return invalid("estimated_time", "must not be negative")
	}
	return nil
}

// CreateOrder validates the input, captures current catalog prices, computes
// the totals once and persists the order with its items. Stock is left alone.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	generated := in.OrderNumber == ""
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number := in.OrderNumber
		if generated {
			number = s.newOrderNumber()
		}

		order, err := s.createOrder(ctx, in, number)
		if err == nil {
			metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
			log.Printf("Order %s placed (%s, total %s)", order.OrderNumber, order.OrderType, order.Total.StringFixed(2))
			return order, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		if !generated {
			return nil, ErrOrderNumberTaken
		}
		log.Printf("Order number %s collided, retrying (attempt %d)", number, attempt)
	}

	return nil, ErrOrderNumberExhausted
}

func (s *OrderService) createOrder(ctx context.Context, in CreateOrderInput, number string) (*models.Order, error) {
	var order models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]models.OrderItem, 0, len(in.Items))
		subtotal := decimal.Zero

		for i, line := range in.Items {
			var menuItem models.MenuItem
			if err := tx.First(&menuItem, line.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid(fmt.Sprintf("items[%d].menu_item_id", i), fmt.Sprintf("menu item %d does not exist", line.MenuItemID))
				}
				return err
			}
			if !menuItem.IsAvailable {
				return invalid(fmt.Sprintf("items[%d].menu_item_id", i), fmt.Sprintf("%s is not available", menuItem.Name))
			}

			item := models.OrderItem{
				MenuItemID:          menuItem.ID,
				MenuItemName:        menuItem.Name,
				Quantity:            line.Quantity,
				Price:               menuItem.Price,
				SpecialInstructions: strings.TrimSpace(line.SpecialInstructions),
			}
			subtotal = subtotal.Add(item.LineTotal())
			items = append(items, item)
		}

		fee, err := deliveryFee(tx, in, subtotal)
		if err != nil {
			return err
		}

		order = models.Order{
			OrderNumber:     number,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			OrderType:       in.OrderType,
			DeliveryAddress: in.DeliveryAddress,
			Status:          models.StatusPending,
			PaymentStatus:   models.PaymentPending,
			Subtotal:        subtotal,
			DeliveryFee:     fee,
			Total:           subtotal.Add(fee),
			SpecialNotes:    strings.TrimSpace(in.SpecialNotes),
			EstimatedTime:   in.EstimatedTime,
			Items:           items,
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// deliveryFee resolves the fee: an explicit fee wins, pickup is free, and
// delivery uses the site settings fee unless the subtotal reaches the free
// delivery minimum.
func deliveryFee(tx *gorm.DB, in CreateOrderInput, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if in.DeliveryFee != nil {
		return *in.DeliveryFee, nil
	}
	if in.OrderType == models.OrderTypePickup {
		return decimal.Zero, nil
	}

	var settings models.SiteSettings
	result := tx.Order("id ASC").Limit(1).Find(&settings)
	if result.Error != nil {
		return decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, nil
	}

	if settings.FreeDeliveryMinimum.IsPositive() && subtotal.GreaterThanOrEqual(settings.FreeDeliveryMinimum) {
		return decimal.Zero, nil
	}
	return settings.DeliveryFee, nil
}

// UpdateStatus sets the order status. Any enumerated status is accepted from
// any prior status unless strict transitions are enabled, in which case only
// adjacent lifecycle steps and cancellation before delivery are allowed.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (models.OrderStatus, error) {
	if !status.Valid() {
		metrics.OrderStatusUpdates.WithLabelValues("invalid", "rejected").Inc()
		return "", ErrInvalidStatus
	}

	var err error
	if s.strictTransitions {
		err = s.transition(ctx, orderID, status)
	} else {
		err = s.setStatus(ctx, orderID, status)
	}
	if err != nil {
		metrics.OrderStatusUpdates.WithLabelValues(string(status), "rejected").Inc()
		return "", err
	}

	metrics.OrderStatusUpdates.WithLabelValues(string(status), "ok").Inc()
	return status, nil
}

func (s *OrderService) setStatus(ctx context.Context, orderID uint, status models.OrderStatus) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.ensureOrderExists(db, orderID)
	}
	return nil
}

func (s *OrderService) transition(ctx context.Context, orderID uint, status models.OrderStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "status").First(&order, orderID).Error; err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if order.Status == status {
			return nil
		}
		if !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, status)
		}

		// Guard on the status we validated against so a concurrent change loses
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", ErrIllegalTransition)
		}
		return nil
	})
}

// UpdatePaymentStatus records payment bookkeeping for an order
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID uint, status models.PaymentStatus) (models.PaymentStatus, error) {
	if !status.Valid() {
		return "", ErrInvalidPaymentStatus
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.Order{}).Where("id = ?", orderID).Update("payment_status", status)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.ensureOrderExists(db, orderID); err != nil {
			return "", err
		}
	}
	return status, nil
}

func (s *OrderService) ensureOrderExists(db *gorm.DB, orderID uint) error {
	var count int64
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetOrder loads an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// GetOrderByNumber loads an order by its public order number
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, ErrOrderNotFound
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").Where("order_number = ?", number).First(&order).Error; err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// ListOrdersInput filters the admin order list
type ListOrdersInput struct {
	Status   models.OrderStatus // empty means all
	Page     int
	PageSize int
}

// ListOrders returns one page of orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, in ListOrdersInput) ([]models.Order, utils.Page, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, utils.Page{}, ErrInvalidStatus
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = OrderPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if in.Status != "" {
		query = query.Where("status = ?", in.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.Page{}, err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(utils.Offset(in.Page, in.PageSize)).
		Limit(in.PageSize).
		Find(&orders).Error; err != nil {
		return nil, utils.Page{}, err
	}

	return orders, utils.NewPage(in.Page, in.PageSize, total), nil
}

// RecentOrders returns the n newest orders
func (s *OrderService) RecentOrders(ctx context.Context, n int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n).Find(&orders).Error
	return orders, err
}

// CountOrders returns order counts keyed by status
func (s *OrderService) CountOrders(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DeleteOrder removes an order together with its items
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id", "order_number").First(&order, orderID).Error; err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return err
		}
		log.Printf("Order %s deleted", order.OrderNumber)
		return nil
	})
}
