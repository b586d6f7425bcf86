package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/dchen/storefront/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CatalogService implements domain.CatalogService using PostgreSQL.
type CatalogService struct {
	db DB
}

// Compile-time check that CatalogService implements domain.CatalogService.
var _ domain.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new PostgreSQL-backed catalog service.
func NewCatalogService(db DB) *CatalogService {
	return &CatalogService{db: db}
}

const productColumns = `
	id, title, description, price, discount_price, category, brand,
	rating, stock_quantity, image_url, created_at, updated_at`

// ListProducts returns all products matching the filter, unpaginated.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += ` AND title ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to list products")
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, "catalog.list", "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to read products")
	}

	return products, nil
}

// GetProduct retrieves a product with its image gallery. When the gallery is
// empty the primary image_url stands in as a single-element gallery.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "catalog.get", "failed to get product")
	}

	rows, err := s.db.Query(ctx, `SELECT image_url FROM product_images WHERE product_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, domain.Internal(err, "catalog.get", "failed to get product images")
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, domain.Internal(err, "catalog.get", "failed to scan product image")
		}
		images = append(images, url)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.get", "failed to read product images")
	}

	if len(images) == 0 && p.ImageURL != "" {
		images = []string{p.ImageURL}
	}

	return &domain.ProductDetail{Product: p, Images: images}, nil
}

// scanProduct reads one products row in productColumns order.
func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.DiscountPrice,
		&p.Category,
		&p.Brand,
		&p.Rating,
		&p.StockQuantity,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
