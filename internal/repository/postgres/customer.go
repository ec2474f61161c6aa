package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

const customerColumns = `id, name, email, phone, preferences, purchase_history, created_at, updated_at`

// CustomerRepository implements repository.CustomerRepository using PostgreSQL.
type CustomerRepository struct {
	pool database.DBTX
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository creates a new PostgreSQL-backed customer repository.
func NewCustomerRepository(pool database.DBTX) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns customers matching search on name or email, newest first.
func (r *CustomerRepository) List(ctx context.Context, search string) ([]domain.Customer, error) {
	var (
		where string
		args  []any
	)
	if search != "" {
		where = "WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+escapeLike(search)+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		%s
		ORDER BY created_at DESC, id ASC`, customerColumns, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var c domain.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var c domain.Customer
	if err := scanCustomer(r.pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer", id)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		c.Preferences,
		history(c.PurchaseHistory),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("customer", "id", c.ID)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Update changes contact details and preferences. Purchase history is not
// editable and is left as stored.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, preferences = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query,
		c.Name,
		c.Email,
		c.Phone,
		c.Preferences,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", c.ID)
	}
	return nil
}

// Delete removes a customer by ID.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("customer", id)
	}
	return nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

func scanCustomer(row pgx.Row, c *domain.Customer) error {
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Preferences,
		&c.PurchaseHistory,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return err
	}
	c.PurchaseHistory = history(c.PurchaseHistory)
	return nil
}

func history(h []string) []string {
	if h == nil {
		return []string{}
	}
	return h
}
