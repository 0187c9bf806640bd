package cart

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/catalog"
	"github.com/amnamine/AccessoiresHF/internal/identity"
	"github.com/amnamine/AccessoiresHF/internal/session"
)

var (
	// ErrProductUnavailable is returned by Add when the product does not
	// exist or has been deactivated.
	ErrProductUnavailable = errors.New("product not found or inactive")

	// ErrSelfPurchase is returned when a seller attempts to add their own
	// listing. The cart is left untouched.
	ErrSelfPurchase = errors.New("cannot purchase your own listing")
)

// Engine maintains one session's cart: a mapping from product to desired
// quantity plus a price snapshot, reconciled against live stock on every
// read. It holds no state of its own; everything lives in the session store.
type Engine struct {
	sessions session.Store
	products catalog.Reader
}

func NewEngine(sessions session.Store, products catalog.Reader) *Engine {
	return &Engine{sessions: sessions, products: products}
}

// Add increases the stored quantity for a product by quantity (which may be
// negative). The resulting quantity is clamped to [0, live stock]; a result
// of zero removes the line. The stored price snapshot is always overwritten
// with the product's current price.
func (e *Engine) Add(ctx context.Context, sessionID string, actor identity.Actor, productID string, quantity int) error {
	p, err := e.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrProductUnavailable
		}
		return err
	}
	if !p.IsActive {
		return ErrProductUnavailable
	}
	if p.SellerID != "" && p.SellerID == actor.ID {
		return ErrSelfPurchase
	}

	contents, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}

	q := contents[productID].Quantity + quantity
	if q > p.Stock {
		q = p.Stock
	}
	if q <= 0 {
		delete(contents, productID)
	} else {
		contents[productID] = StoredLine{Quantity: q, Price: p.Price.String()}
	}

	return e.save(ctx, sessionID, contents)
}

// Remove deletes a product's line. Removing an absent line is a no-op.
func (e *Engine) Remove(ctx context.Context, sessionID, productID string) error {
	contents, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}
	delete(contents, productID)
	return e.save(ctx, sessionID, contents)
}

// SetQuantity sets the absolute target quantity for a product. A quantity of
// zero or less removes the line; otherwise the target goes through the same
// clamp-to-stock path as Add.
func (e *Engine) SetQuantity(ctx context.Context, sessionID string, actor identity.Actor, productID string, quantity int) error {
	if quantity <= 0 {
		return e.Remove(ctx, sessionID, productID)
	}

	contents, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.Add(ctx, sessionID, actor, productID, quantity-contents[productID].Quantity)
}

// Clear empties the cart unconditionally.
func (e *Engine) Clear(ctx context.Context, sessionID string) error {
	return e.save(ctx, sessionID, Contents{})
}

// Materialize re-derives the live view of the cart: lines whose products
// vanished or were deactivated are silently dropped, quantities are
// re-clamped to current stock, and the unit price is the stored snapshot,
// not today's live price. Stock may change between calls, so callers must
// not cache the result.
func (e *Engine) Materialize(ctx context.Context, sessionID string) ([]Line, error) {
	contents, err := e.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(contents))
	for id := range contents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := e.products.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			continue
		}

		qty := contents[id].Quantity
		if qty > p.Stock {
			qty = p.Stock
		}
		if qty <= 0 {
			continue
		}

		price, err := decimal.NewFromString(contents[id].Price)
		if err != nil {
			// snapshot unreadable, fall back to the live price
			price = p.Price
		}

		lines = append(lines, Line{
			Product:   p,
			Quantity:  qty,
			UnitPrice: price,
			Subtotal:  price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines, nil
}

// Total returns the sum of all materialized subtotals.
func (e *Engine) Total(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	lines, err := e.Materialize(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Subtotal)
	}
	return total, nil
}

// Count returns the sum of all materialized quantities.
func (e *Engine) Count(ctx context.Context, sessionID string) (int, error) {
	lines, err := e.Materialize(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, ln := range lines {
		count += ln.Quantity
	}
	return count, nil
}

func (e *Engine) load(ctx context.Context, sessionID string) (Contents, error) {
	blob, err := e.sessions.Get(ctx, sessionID, SessionKey)
	if err != nil {
		return nil, err
	}
	return decodeContents(blob)
}

func (e *Engine) save(ctx context.Context, sessionID string, c Contents) error {
	blob, err := encodeContents(c)
	if err != nil {
		return err
	}
	return e.sessions.Set(ctx, sessionID, SessionKey, blob)
}
