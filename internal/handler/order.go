package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dchen/storefront/internal/domain"
)

// validate checks order payloads. Struct validation is confined to this
// handler; the cart and wishlist payloads are single-field and checked inline.
var validate = validator.New(validator.WithRequiredStructEnabled())

// OrderHandler serves order placement and history.
type OrderHandler struct {
	orders domain.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders domain.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type placeOrderRequest struct {
	CustomerName    string           `json:"customer_name" validate:"required"`
	CustomerEmail   string           `json:"customer_email" validate:"required,email"`
	CustomerAddress string           `json:"customer_address" validate:"required"`
	TotalAmount     float64          `json:"total_amount" validate:"required,gt=0"`
	Items           []orderItemInput `json:"items" validate:"omitempty,dive"`
}

// orderItemInput is an explicit order line; when items are present the order
// bypasses the stored cart.
type orderItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type placeOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

// Place handles POST /orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	const op = "order.place"

	var req placeOrderRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, r, domain.Invalid(op, "Missing required fields"))
		return
	}

	// An explicit empty list means "order nothing", not "fall back to the
	// cart"; only an absent field does that.
	if req.Items != nil && len(req.Items) == 0 {
		writeError(w, r, domain.ErrCartEmpty)
		return
	}

	items := make([]domain.OrderLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	orderID, err := h.orders.PlaceOrder(r.Context(), domain.PlaceOrderParams{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		TotalAmount:     req.TotalAmount,
		Items:           items,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, placeOrderResponse{
		Message: "Order placed successfully",
		OrderID: orderID,
	})
}

// History handles GET /orders
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetOrderHistory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if orders == nil {
		orders = []domain.OrderWithItems{}
	}
	writeJSON(w, http.StatusOK, orders)
}
