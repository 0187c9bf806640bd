package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/amnamine/AccessoiresHF/internal/cart"
	"github.com/amnamine/AccessoiresHF/internal/identity"
)

// ErrEmptyCart is returned by PlaceOrder when there is nothing to purchase.
// No persistence happens in that case.
var ErrEmptyCart = errors.New("cart is empty, nothing to purchase")

// PlacementEngine converts a session's reconciled cart into a durable order:
// it validates the shipping contact, re-derives the total at commit time,
// writes the order with its per-seller items and stock decrements in one
// transaction, and clears the cart.
type PlacementEngine struct {
	orders Repository
	carts  *cart.Engine
}

func NewPlacementEngine(orders Repository, carts *cart.Engine) *PlacementEngine {
	return &PlacementEngine{orders: orders, carts: carts}
}

// PlaceOrder places an order for the session's cart. An empty actor places a
// guest order. Lines that shrank against live stock between materialization
// and commit are reported as ShortLine entries alongside the placed order.
func (e *PlacementEngine) PlaceOrder(ctx context.Context, sessionID string, actor identity.Actor, shipping ShippingInfo) (*Order, []ShortLine, error) {
	lines, err := e.carts.Materialize(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	if err := shipping.Validate(); err != nil {
		return nil, nil, err
	}

	o := &Order{
		BuyerID:  actor.ID,
		Shipping: shipping,
		Status:   StatusPending,
		Items:    make([]Item, 0, len(lines)),
	}
	for _, ln := range lines {
		o.Items = append(o.Items, Item{
			ProductID: ln.Product.ID,
			SellerID:  ln.Product.SellerID,
			Quantity:  ln.Quantity,
			Price:     ln.UnitPrice,
		})
	}

	short, err := e.orders.Place(ctx, o)
	if err != nil {
		if errors.Is(err, ErrNoGrantableItems) {
			// every line clamped to zero at commit, treat like an
			// empty cart
			return nil, short, ErrEmptyCart
		}
		return nil, nil, err
	}

	if err := e.carts.Clear(ctx, sessionID); err != nil {
		// the order is committed at this point, surface the leftover
		// cart rather than pretending the placement failed
		return o, short, fmt.Errorf("order %s placed but cart not cleared: %w", o.ID, err)
	}

	return o, short, nil
}
