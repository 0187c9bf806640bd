package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoGrantableItems is returned by Place when every requested line clamps
// to zero against live stock: there is nothing left to purchase.
var ErrNoGrantableItems = errors.New("no items can be granted from stock")

// ShortLine records a line whose granted quantity fell below the requested
// quantity because live stock shrank between materialization and commit.
type ShortLine struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Granted   int    `json:"granted"`
}

type Repository interface {
	// Place persists the order, its items, and the matching stock
	// decrements as one transaction. Item quantities are re-clamped to
	// live stock under row locks; o is updated in place with the granted
	// quantities, recomputed total, id, and creation time.
	Place(ctx context.Context, o *Order) ([]ShortLine, error)

	// GetByID returns nil when the order does not exist.
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
	Counts(ctx context.Context) (total int, pending int, err error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Place(ctx context.Context, o *Order) ([]ShortLine, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Lock each product row and re-clamp the requested quantity against
	// the stock seen under the lock. Lines that clamp to zero are dropped;
	// stock can never go negative by construction.
	var (
		granted []Item
		short   []ShortLine
	)
	for _, it := range o.Items {
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE id = $1 FOR UPDATE`,
			it.ProductID,
		).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				stock = 0
			} else {
				return nil, fmt.Errorf("lock product %s: %w", it.ProductID, err)
			}
		}

		q := it.Quantity
		if q > stock {
			q = stock
		}
		if q < it.Quantity {
			short = append(short, ShortLine{ProductID: it.ProductID, Requested: it.Quantity, Granted: q})
		}
		if q <= 0 {
			continue
		}

		it.Quantity = q
		granted = append(granted, it)
	}

	if len(granted) == 0 {
		return short, ErrNoGrantableItems
	}

	// The authoritative total is recomputed from the granted lines at
	// commit time, never trusted from an earlier cart view.
	total := decimal.Zero
	for _, it := range granted {
		total = total.Add(it.Subtotal())
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, buyer_id, email, first_name, last_name, address, city, postal_code, country, phone, status, total, created_at)
         VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::numeric, $13)`,
		o.ID, o.BuyerID, o.Shipping.Email, o.Shipping.FirstName, o.Shipping.LastName,
		o.Shipping.Address, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Country,
		o.Shipping.Phone, string(o.Status), total.String(), o.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range granted {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, seller_id, quantity, price)
             VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::numeric)`,
			uuid.NewString(), o.ID, it.ProductID, it.SellerID, it.Quantity, it.Price.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert order_item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`,
			it.ProductID, it.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	o.Items = granted
	o.Total = total
	return short, nil
}

const orderColumns = `id, COALESCE(buyer_id, ''), email, first_name, last_name, address, city, postal_code, country, phone, status, total::text, created_at`

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repo) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`,
		buyerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *repo) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %s: %w", orderID, sql.ErrNoRows)
	}
	return nil
}

func (r *repo) Counts(ctx context.Context) (int, int, error) {
	var total, pending int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'P') FROM orders`,
	).Scan(&total, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("count orders: %w", err)
	}
	return total, pending, nil
}

func (r *repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, COALESCE(seller_id, ''), quantity, price::text
         FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ProductID, &it.SellerID, &it.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		it.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse item price %q: %w", price, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		status string
		total  string
	)
	err := row.Scan(&o.ID, &o.BuyerID, &o.Shipping.Email, &o.Shipping.FirstName, &o.Shipping.LastName,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.Shipping.Phone, &status, &total, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	o.Status = Status(status)
	o.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	return &o, nil
}
