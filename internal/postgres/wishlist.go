package postgres

import (
	"context"

	"github.com/dchen/storefront/internal/domain"
)

// WishlistService implements domain.WishlistService using PostgreSQL.
type WishlistService struct {
	db DB
}

var _ domain.WishlistService = (*WishlistService)(nil)

// NewWishlistService creates a new PostgreSQL-backed wishlist service.
func NewWishlistService(db DB) *WishlistService {
	return &WishlistService{db: db}
}

// AddToWishlist saves a product once. The UNIQUE constraint on
// wishlist.product_id turns a duplicate add into a zero-row insert, which is
// reported back as "already present" rather than an error.
func (s *WishlistService) AddToWishlist(ctx context.Context, productID int64) (domain.AddToWishlistResult, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO wishlist (product_id)
		VALUES ($1)
		ON CONFLICT (product_id) DO NOTHING`,
		productID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.AddToWishlistResult{}, domain.Errorf(domain.ENOTFOUND, "wishlist.add", "Product not found")
		}
		return domain.AddToWishlistResult{}, domain.Internal(err, "wishlist.add", "failed to add to wishlist")
	}

	return domain.AddToWishlistResult{AlreadyPresent: tag.RowsAffected() == 0}, nil
}

// ListWishlist returns saved lines with display fields, newest first.
func (s *WishlistService) ListWishlist(ctx context.Context) ([]domain.WishlistLine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.id, p.id, p.title, p.image_url, p.price, p.discount_price, w.created_at
		FROM wishlist w
		JOIN products p ON p.id = w.product_id
		ORDER BY w.created_at DESC, w.id DESC`)
	if err != nil {
		return nil, domain.Internal(err, "wishlist.list", "failed to list wishlist")
	}
	defer rows.Close()

	lines := []domain.WishlistLine{}
	for rows.Next() {
		var l domain.WishlistLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Title, &l.ImageURL, &l.Price, &l.DiscountPrice, &l.CreatedAt); err != nil {
			return nil, domain.Internal(err, "wishlist.list", "failed to scan wishlist line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "wishlist.list", "failed to read wishlist lines")
	}

	return lines, nil
}

// RemoveFromWishlist deletes by wishlist-line id; absent ids are a no-op.
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, lineID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM wishlist WHERE id = $1`, lineID); err != nil {
		return domain.Internal(err, "wishlist.remove", "failed to remove wishlist line")
	}

	return nil
}

// IsInWishlist reports whether the product is saved.
func (s *WishlistService) IsInWishlist(ctx context.Context, productID int64) (bool, error) {
	var present bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wishlist WHERE product_id = $1)`, productID).Scan(&present)
	if err != nil {
		return false, domain.Internal(err, "wishlist.status", "failed to check wishlist")
	}

	return present, nil
}
