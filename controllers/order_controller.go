package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/chillas-api/models"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/kendall-kelly/chillas-api/utils"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one cart line in a checkout request
type OrderItemRequest struct {
	MenuItemID          uint   `json:"menu_item_id" binding:"required"`
	Quantity            int    `json:"quantity" binding:"required,gt=0"`
	SpecialInstructions string `json:"special_instructions" binding:"max=500"`
}

// PlaceOrderRequest represents the checkout form
type PlaceOrderRequest struct {
	CustomerName    string             `json:"customer_name" binding:"required,max=100"`
	CustomerEmail   string             `json:"customer_email" binding:"omitempty,email,max=254"`
	CustomerPhone   string             `json:"customer_phone" binding:"required,max=20"`
	OrderType       string             `json:"order_type" binding:"omitempty,oneof=delivery pickup"`
	DeliveryAddress string             `json:"delivery_address"`
	SpecialNotes    string             `json:"special_notes"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// AdminCreateOrderRequest lets staff enter an order taken by phone, with an
// explicit fee and estimate
type AdminCreateOrderRequest struct {
	PlaceOrderRequest
	OrderNumber   string           `json:"order_number" binding:"omitempty,max=20"`
	DeliveryFee   *decimal.Decimal `json:"delivery_fee"`
	EstimatedTime *int             `json:"estimated_time" binding:"omitempty,gte=0"`
}

// UpdateOrderStatusRequest represents the request body for changing order status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest represents the request body for changing payment status
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (r PlaceOrderRequest) input() services.CreateOrderInput {
	lines := make([]services.OrderLineInput, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, services.OrderLineInput{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		})
	}
	return services.CreateOrderInput{
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		OrderType:       models.OrderType(r.OrderType),
		DeliveryAddress: r.DeliveryAddress,
		SpecialNotes:    r.SpecialNotes,
		Items:           lines,
	}
}

// PlaceOrder handles POST /api/v1/orders - public checkout
func PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := orderService().CreateOrder(c.Request.Context(), req.input())
	if err != nil {
		handleServiceError(c, err, "Failed to create order")
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// TrackOrder handles GET /api/v1/orders/:number - public order status by order number
func TrackOrder(c *gin.Context) {
	order, err := orderService().GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		handleServiceError(c, err, "Failed to load order")
		return
	}

	respondOK(c, http.StatusOK, order.Tracking())
}

// AdminCreateOrder handles POST /api/v1/admin/orders
func AdminCreateOrder(c *gin.Context) {
	var req AdminCreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	in := req.input()
	in.OrderNumber = req.OrderNumber
	in.DeliveryFee = req.DeliveryFee
	in.EstimatedTime = req.EstimatedTime

	order, err := orderService().CreateOrder(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err, "Failed to create order")
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/admin/orders?status=&page=
func ListOrders(c *gin.Context) {
	orders, page, err := orderService().ListOrders(c.Request.Context(), services.ListOrdersInput{
		Status: models.OrderStatus(c.Query("status")),
		Page:   utils.ParsePage(c.Query("page")),
	})
	if err != nil {
		handleServiceError(c, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       orders,
		"pagination": page,
	})
}

// GetOrder handles GET /api/v1/admin/orders/:id
func GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().GetOrder(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Failed to load order")
		return
	}

	respondOK(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/admin/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	status, err := orderService().UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(c, err, "Failed to update order status")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"id":     id,
		"status": status,
	})
}

// UpdatePaymentStatus handles PATCH /api/v1/admin/orders/:id/payment-status
func UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	status, err := orderService().UpdatePaymentStatus(c.Request.Context(), id, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		handleServiceError(c, err, "Failed to update payment status")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"id":             id,
		"payment_status": status,
	})
}

// DeleteOrder handles DELETE /api/v1/admin/orders/:id
func DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := orderService().DeleteOrder(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "Failed to delete order")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}
