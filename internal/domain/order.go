package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Order-related domain errors.
var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrCartEmpty     = &Error{Code: EPRECONDITION, Message: "Cart is empty"}
	ErrTotalMismatch = &Error{Code: EINVALID, Message: "Order total does not match cart contents"}
)

// InsufficientStock builds the per-product precondition error the client
// renders as actionable feedback.
func InsufficientStock(title string) error {
	return &Error{
		Code:    EPRECONDITION,
		Message: fmt.Sprintf("Insufficient stock for %s", title),
	}
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderService provides business logic for order placement and history.
type OrderService interface {
	// PlaceOrder converts the current cart (or the explicit Items list) into
	// an order: validates stock against a locked snapshot, persists the order
	// header and line items at the prices in effect now, decrements stock and
	// clears the cart when it was the source, all in one transaction. Returns
	// the new order id.
	//
	// Fails with ErrCartEmpty when there is nothing to order and with an
	// InsufficientStock error naming the first product whose requested
	// quantity exceeds current stock. Either failure leaves the store
	// untouched.
	PlaceOrder(ctx context.Context, params PlaceOrderParams) (int64, error)

	// GetOrderHistory returns every order with its nested items, newest
	// first (created_at DESC, id DESC). Orders without items appear with an
	// empty items slice.
	GetOrderHistory(ctx context.Context) ([]OrderWithItems, error)
}

// PlaceOrderParams carries the customer details for a new order.
// TotalAmount is the client-computed total; whether it is verified against
// the order lines is an order-service configuration concern.
//
// Items, when non-empty, names the products to order directly; the stored
// cart is then neither read nor cleared. When empty the order is built from
// the cart, which is cleared on success.
type PlaceOrderParams struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	TotalAmount     float64
	Items           []OrderLineInput
}

// OrderLineInput names a product and quantity for direct order placement.
type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// Order is an immutable record of a completed purchase transaction.
type Order struct {
	ID              int64       `json:"id"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerAddress string      `json:"customer_address"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// OrderItem is one purchased line. PriceAtPurchase snapshots the effective
// (discounted-if-present) unit price at order time and is never recomputed.
type OrderItem struct {
	ProductID       int64    `json:"product_id"`
	Title           string   `json:"title"`
	ImageURL        string   `json:"image_url"`
	Quantity        int      `json:"quantity"`
	PriceAtPurchase float64  `json:"price_at_purchase"`
	DiscountPrice   *float64 `json:"discount_price"`
}

// OrderWithItems is an order plus its line items for history listings.
type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}

// totalTolerance absorbs client-side float rounding when verifying a
// submitted order total against the recomputed one.
const totalTolerance = 0.01

// TotalsMatch reports whether a client-supplied total agrees with the
// server-recomputed one within rounding tolerance.
func TotalsMatch(submitted, computed float64) bool {
	return math.Abs(submitted-computed) <= totalTolerance
}
