package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

const productColumns = `id, name, category, unit_price, stock_level, description, image_url, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns products matching search on name or category, newest first.
func (r *ProductRepository) List(ctx context.Context, search string) ([]domain.Product, error) {
	var (
		where string
		args  []any
	)
	if search != "" {
		where = "WHERE name ILIKE $1 OR category ILIKE $1"
		args = append(args, "%"+escapeLike(search)+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id ASC`, productColumns, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Category,
		p.UnitPrice,
		p.StockLevel,
		p.Description,
		p.ImageURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, unit_price = $3, stock_level = $4,
		    description = $5, image_url = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Category,
		p.UnitPrice,
		p.StockLevel,
		p.Description,
		p.ImageURL,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// DeductStock lowers stock_level by quantity, floored at zero.
func (r *ProductRepository) DeductStock(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE products
		SET stock_level = GREATEST(stock_level - $1, 0), updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deduct stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Stats aggregates the catalog in a single query.
func (r *ProductRepository) Stats(ctx context.Context, lowStockThreshold int) (repository.InventoryStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(stock_level), 0),
		       COUNT(*) FILTER (WHERE stock_level < $1)
		FROM products`

	var s repository.InventoryStats
	if err := r.pool.QueryRow(ctx, query, lowStockThreshold).Scan(&s.Items, &s.StockUnits, &s.LowStock); err != nil {
		return repository.InventoryStats{}, fmt.Errorf("product stats: %w", err)
	}
	return s, nil
}

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.UnitPrice,
		&p.StockLevel,
		&p.Description,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
