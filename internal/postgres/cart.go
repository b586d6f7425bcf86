package postgres

import (
	"context"
	"errors"

	"github.com/dchen/storefront/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// CartService implements domain.CartService using PostgreSQL.
type CartService struct {
	db DB
}

var _ domain.CartService = (*CartService)(nil)

// NewCartService creates a new PostgreSQL-backed cart service.
func NewCartService(db DB) *CartService {
	return &CartService{db: db}
}

// AddToCart upserts a cart line: a second add for the same product bumps the
// quantity instead of creating a duplicate row. The UNIQUE constraint on
// cart.product_id makes the merge a single statement.
func (s *CartService) AddToCart(ctx context.Context, productID int64) (domain.AddToCartResult, error) {
	var (
		lineID  int64
		created bool
	)

	err := s.db.QueryRow(ctx, `
		INSERT INTO cart (product_id, quantity)
		VALUES ($1, 1)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = cart.quantity + 1
		RETURNING id, (xmax = 0)`,
		productID,
	).Scan(&lineID, &created)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.AddToCartResult{}, domain.Errorf(domain.ENOTFOUND, "cart.add", "Product not found")
		}
		return domain.AddToCartResult{}, domain.Internal(err, "cart.add", "failed to add to cart")
	}

	return domain.AddToCartResult{LineID: lineID, Created: created}, nil
}

// ListCart returns all cart lines with product display fields joined in.
func (s *CartService) ListCart(ctx context.Context) ([]domain.CartLine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.product_id, p.title, p.image_url, p.price, p.discount_price, c.quantity, c.added_at
		FROM cart c
		JOIN products p ON p.id = c.product_id
		ORDER BY c.id`)
	if err != nil {
		return nil, domain.Internal(err, "cart.list", "failed to list cart")
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Title, &l.ImageURL, &l.Price, &l.DiscountPrice, &l.Quantity, &l.AddedAt); err != nil {
			return nil, domain.Internal(err, "cart.list", "failed to scan cart line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "cart.list", "failed to read cart lines")
	}

	return lines, nil
}

// UpdateQuantity overwrites a line's quantity. No stock check happens here;
// stock is validated once, at order placement. Updating a missing line
// affects zero rows and is not an error.
func (s *CartService) UpdateQuantity(ctx context.Context, lineID int64, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	if _, err := s.db.Exec(ctx, `UPDATE cart SET quantity = $1 WHERE id = $2`, quantity, lineID); err != nil {
		return domain.Internal(err, "cart.update", "failed to update cart quantity")
	}

	return nil
}

// RemoveFromCart deletes a line; deleting an absent id is a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, lineID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM cart WHERE id = $1`, lineID); err != nil {
		return domain.Internal(err, "cart.remove", "failed to remove cart line")
	}

	return nil
}

// isForeignKeyViolation reports whether err is a Postgres 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
