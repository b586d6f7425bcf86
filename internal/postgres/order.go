package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/dchen/storefront/internal/domain"
	"github.com/jackc/pgx/v5"
)

// OrderService implements domain.OrderService using PostgreSQL.
type OrderService struct {
	db DB

	// status is assigned to newly placed orders (pending by default).
	status domain.OrderStatus

	// strictTotals makes PlaceOrder recompute the order total from the locked
	// line snapshot and reject a submitted value outside rounding tolerance.
	strictTotals bool
}

var _ domain.OrderService = (*OrderService)(nil)

// NewOrderService creates a new PostgreSQL-backed order service.
func NewOrderService(db DB, status domain.OrderStatus, strictTotals bool) *OrderService {
	return &OrderService{db: db, status: status, strictTotals: strictTotals}
}

// orderLine is the locked cart/product snapshot one placement works from.
type orderLine struct {
	productID     int64
	quantity      int
	title         string
	stockQuantity int
	price         float64
	discountPrice *float64
}

func (l orderLine) unitPrice() float64 {
	if l.discountPrice != nil {
		return *l.discountPrice
	}
	return l.price
}

// PlaceOrder converts the cart (or the explicit items list) into an order
// inside one transaction.
//
// Order lines are read joined with live stock and prices under FOR UPDATE
// row locks on the touched product rows, so two concurrent placements over
// overlapping products serialize on the lock instead of both passing the
// stock check. All validation happens against that snapshot before any
// write; any failure after the first write rolls the whole transaction back,
// leaving no partial order, no partial stock decrement and the cart intact.
func (s *OrderService) PlaceOrder(ctx context.Context, params domain.PlaceOrderParams) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, domain.Internal(err, "order.place", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	fromCart := len(params.Items) == 0

	var lines []orderLine
	if fromCart {
		lines, err = lockCartLines(ctx, tx)
	} else {
		lines, err = lockItemLines(ctx, tx, params.Items)
	}
	if err != nil {
		return 0, err
	}

	if len(lines) == 0 {
		return 0, domain.ErrCartEmpty
	}

	// Validate every line before the first write.
	var computedTotal float64
	for _, l := range lines {
		if l.quantity > l.stockQuantity {
			return 0, domain.InsufficientStock(l.title)
		}
		computedTotal += float64(l.quantity) * l.unitPrice()
	}

	total := params.TotalAmount
	if s.strictTotals {
		if !domain.TotalsMatch(params.TotalAmount, computedTotal) {
			return 0, domain.ErrTotalMismatch
		}
		total = computedTotal
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (customer_name, customer_email, customer_address, total_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		params.CustomerName, params.CustomerEmail, params.CustomerAddress, total, string(s.status),
	).Scan(&orderID)
	if err != nil {
		return 0, domain.Internal(err, "order.place", "failed to create order")
	}

	for _, l := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			VALUES ($1, $2, $3, $4)`,
			orderID, l.productID, l.quantity, l.unitPrice(),
		)
		if err != nil {
			return 0, domain.Internal(err, "order.place", "failed to create order item")
		}

		// The guard repeats the stock check; it can only fire if something
		// bypassed the row locks, and then the whole placement unwinds.
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $1, updated_at = now()
			WHERE id = $2 AND stock_quantity >= $1`,
			l.quantity, l.productID,
		)
		if err != nil {
			return 0, domain.Internal(err, "order.place", "failed to decrement stock")
		}
		if tag.RowsAffected() == 0 {
			return 0, domain.InsufficientStock(l.title)
		}
	}

	if fromCart {
		if _, err := tx.Exec(ctx, `DELETE FROM cart`); err != nil {
			return 0, domain.Internal(err, "order.place", "failed to clear cart")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, domain.Internal(err, "order.place", "failed to commit order")
	}

	return orderID, nil
}

// lockCartLines reads the cart joined with live product state, locking the
// touched product rows for the rest of the transaction.
func lockCartLines(ctx context.Context, tx pgx.Tx) ([]orderLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT c.product_id, c.quantity, p.title, p.stock_quantity, p.price, p.discount_price
		FROM cart c
		JOIN products p ON p.id = c.product_id
		ORDER BY c.id
		FOR UPDATE OF p`)
	if err != nil {
		return nil, domain.Internal(err, "order.place", "failed to load cart")
	}
	defer rows.Close()

	var lines []orderLine
	for rows.Next() {
		var l orderLine
		if err := rows.Scan(&l.productID, &l.quantity, &l.title, &l.stockQuantity, &l.price, &l.discountPrice); err != nil {
			return nil, domain.Internal(err, "order.place", "failed to scan cart line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "order.place", "failed to read cart lines")
	}

	return lines, nil
}

// lockItemLines resolves an explicit items list against the products table,
// locking each product row. Items are locked in product-id order so two
// concurrent explicit placements cannot deadlock on each other.
func lockItemLines(ctx context.Context, tx pgx.Tx, items []domain.OrderLineInput) ([]orderLine, error) {
	sorted := make([]domain.OrderLineInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	lines := make([]orderLine, 0, len(sorted))
	for _, item := range sorted {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}

		l := orderLine{productID: item.ProductID, quantity: item.Quantity}
		err := tx.QueryRow(ctx, `
			SELECT title, stock_quantity, price, discount_price
			FROM products
			WHERE id = $1
			FOR UPDATE`,
			item.ProductID,
		).Scan(&l.title, &l.stockQuantity, &l.price, &l.discountPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.Errorf(domain.ENOTFOUND, "order.place", "Product not found")
			}
			return nil, domain.Internal(err, "order.place", "failed to load product")
		}
		lines = append(lines, l)
	}

	return lines, nil
}

// GetOrderHistory returns all orders with nested items, newest first.
// A single LEFT JOIN keeps orders without items in the result; rows are
// grouped back into orders in read order.
func (s *OrderService) GetOrderHistory(ctx context.Context) ([]domain.OrderWithItems, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			o.id, o.customer_name, o.customer_email, o.customer_address,
			o.total_amount, o.status, o.created_at,
			oi.product_id, oi.quantity, oi.price_at_purchase,
			p.title, p.image_url, p.discount_price
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN products p ON p.id = oi.product_id
		ORDER BY o.created_at DESC, o.id DESC, oi.id`)
	if err != nil {
		return nil, domain.Internal(err, "order.history", "failed to load orders")
	}
	defer rows.Close()

	orders := []domain.OrderWithItems{}
	index := map[int64]int{}

	for rows.Next() {
		var (
			o               domain.Order
			productID       *int64
			quantity        *int
			priceAtPurchase *float64
			title           *string
			imageURL        *string
			discountPrice   *float64
		)

		err := rows.Scan(
			&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerAddress,
			&o.TotalAmount, &o.Status, &o.CreatedAt,
			&productID, &quantity, &priceAtPurchase,
			&title, &imageURL, &discountPrice,
		)
		if err != nil {
			return nil, domain.Internal(err, "order.history", "failed to scan order row")
		}

		i, ok := index[o.ID]
		if !ok {
			orders = append(orders, domain.OrderWithItems{Order: o, Items: []domain.OrderItem{}})
			i = len(orders) - 1
			index[o.ID] = i
		}

		if productID != nil {
			item := domain.OrderItem{
				ProductID:       *productID,
				Quantity:        *quantity,
				PriceAtPurchase: *priceAtPurchase,
				DiscountPrice:   discountPrice,
			}
			if title != nil {
				item.Title = *title
			}
			if imageURL != nil {
				item.ImageURL = *imageURL
			}
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "order.history", "failed to read order rows")
	}

	return orders, nil
}
