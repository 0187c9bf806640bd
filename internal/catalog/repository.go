package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/identity"
)

var ErrNotFound = errors.New("product not found")

// ErrOwnership is returned when a non-owner, non-staff actor attempts to
// mutate a listing.
var ErrOwnership = errors.New("actor does not own this listing")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Reader is the read surface the cart engine depends on.
type Reader interface {
	Get(ctx context.Context, productID string) (Product, error)
	ListActiveByIDs(ctx context.Context, productIDs []string) (map[string]Product, error)
}

type Repository interface {
	Reader
	ListActive(ctx context.Context) ([]Product, error)
	UpdateListing(ctx context.Context, p Product, actor identity.Actor) error
	StockCounts(ctx context.Context) (lowStock int, outOfStock int, err error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `id, name, description, price::text, stock, COALESCE(seller_id, ''), is_active, created_at, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, productID string) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, productID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) ListActiveByIDs(ctx context.Context, productIDs []string) (map[string]Product, error) {
	if len(productIDs) == 0 {
		return map[string]Product{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) AND is_active`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[string]Product, len(productIDs))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateListing writes the seller-editable fields of a listing. Only the
// listing's own seller or staff may mutate it.
func (r *PostgresRepository) UpdateListing(ctx context.Context, p Product, actor identity.Actor) error {
	current, err := r.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if !CanManage(current, actor) {
		return ErrOwnership
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4::numeric, stock=$5, is_active=$6, updated_at=now()
		WHERE id=$1
	`, p.ID, p.Name, p.Description, p.Price.String(), p.Stock, p.IsActive)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

func (r *PostgresRepository) StockCounts(ctx context.Context) (int, int, error) {
	var lowStock, outOfStock int
	row := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE stock > 0 AND stock <= $1),
			COUNT(*) FILTER (WHERE stock = 0)
		FROM products WHERE is_active
	`, LowStockThreshold)
	if err := row.Scan(&lowStock, &outOfStock); err != nil {
		return 0, 0, err
	}
	return lowStock, outOfStock, nil
}

// CanManage reports whether the actor may mutate the listing: staff always,
// otherwise only the listing's own seller. It shares the actor-equality
// primitive with the order visibility policy.
func CanManage(p Product, actor identity.Actor) bool {
	if actor.Staff {
		return true
	}
	return actor.Authenticated() && p.SellerID == actor.ID
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p         Product
		price     string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.SellerID, &p.IsActive, &createdAt, &updatedAt); err != nil {
		return Product{}, err
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Price = d
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}
