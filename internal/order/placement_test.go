package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/cart"
	"github.com/amnamine/AccessoiresHF/internal/catalog"
	"github.com/amnamine/AccessoiresHF/internal/identity"
	"github.com/amnamine/AccessoiresHF/internal/session"
)

type fakeProducts struct {
	products map[string]catalog.Product
}

func (f *fakeProducts) Get(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) ListActiveByIDs(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product)
	for _, id := range productIDs {
		if p, ok := f.products[id]; ok && p.IsActive {
			out[id] = p
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	Repository

	placeFunc  func(ctx context.Context, o *Order) ([]ShortLine, error)
	placeCalls int
}

func (f *fakeOrderRepo) Place(ctx context.Context, o *Order) ([]ShortLine, error) {
	f.placeCalls++
	if f.placeFunc != nil {
		return f.placeFunc(ctx, o)
	}

	// default: everything granted, total recomputed from the lines
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.ID = "order-1"
	o.Total = total
	return nil, nil
}

func newPlacementFixture(products map[string]catalog.Product, repo *fakeOrderRepo) (*PlacementEngine, *cart.Engine) {
	carts := cart.NewEngine(session.NewMemoryStore(), &fakeProducts{products: products})
	return NewPlacementEngine(repo, carts), carts
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	buyer := identity.Actor{ID: "bob"}
	const sid = "sess-1"

	products := map[string]catalog.Product{
		"A": {ID: "A", Price: decimal.RequireFromString("10.00"), Stock: 5, SellerID: "john", IsActive: true},
		"B": {ID: "B", Price: decimal.RequireFromString("5.00"), Stock: 5, SellerID: "jane", IsActive: true},
	}

	t.Run("places order and clears cart", func(t *testing.T) {
		repo := &fakeOrderRepo{}
		engine, carts := newPlacementFixture(products, repo)

		if err := carts.Add(ctx, sid, buyer, "A", 2); err != nil {
			t.Fatalf("add A: %v", err)
		}
		if err := carts.Add(ctx, sid, buyer, "B", 1); err != nil {
			t.Fatalf("add B: %v", err)
		}

		o, short, err := engine.PlaceOrder(ctx, sid, buyer, validShipping())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if len(short) != 0 {
			t.Fatalf("unexpected short lines: %+v", short)
		}

		if !o.Total.Equal(decimal.RequireFromString("25.00")) {
			t.Fatalf("total %s, want 25.00", o.Total)
		}
		if len(o.Items) != 2 {
			t.Fatalf("expected 2 items, got %+v", o.Items)
		}
		if o.BuyerID != "bob" || o.Status != StatusPending {
			t.Fatalf("unexpected order header %+v", o)
		}

		// seller references are captured per line
		sellers := map[string]string{}
		for _, it := range o.Items {
			sellers[it.ProductID] = it.SellerID
		}
		if sellers["A"] != "john" || sellers["B"] != "jane" {
			t.Fatalf("sellers not captured: %+v", sellers)
		}

		count, err := carts.Count(ctx, sid)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Fatalf("cart not cleared, count %d", count)
		}
	})

	t.Run("empty cart rejected before persistence", func(t *testing.T) {
		repo := &fakeOrderRepo{}
		engine, _ := newPlacementFixture(products, repo)

		_, _, err := engine.PlaceOrder(ctx, sid, buyer, validShipping())
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
		if repo.placeCalls != 0 {
			t.Fatalf("repository touched for empty cart")
		}
	})

	t.Run("invalid shipping rejected before persistence", func(t *testing.T) {
		repo := &fakeOrderRepo{}
		engine, carts := newPlacementFixture(products, repo)

		if err := carts.Add(ctx, sid, buyer, "A", 1); err != nil {
			t.Fatalf("add: %v", err)
		}

		bad := validShipping()
		bad.Email = ""
		_, _, err := engine.PlaceOrder(ctx, sid, buyer, bad)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if repo.placeCalls != 0 {
			t.Fatalf("repository touched for invalid shipping")
		}

		// cart untouched by the failed attempt
		count, err := carts.Count(ctx, sid)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 1 {
			t.Fatalf("cart mutated, count %d", count)
		}
	})

	t.Run("guest checkout leaves buyer empty", func(t *testing.T) {
		repo := &fakeOrderRepo{}
		engine, carts := newPlacementFixture(products, repo)
		guest := identity.Actor{}

		if err := carts.Add(ctx, sid, guest, "A", 1); err != nil {
			t.Fatalf("add: %v", err)
		}

		o, _, err := engine.PlaceOrder(ctx, sid, guest, validShipping())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if o.BuyerID != "" {
			t.Fatalf("guest order has buyer %q", o.BuyerID)
		}
	})

	t.Run("commit-time shortfall surfaces", func(t *testing.T) {
		repo := &fakeOrderRepo{placeFunc: func(ctx context.Context, o *Order) ([]ShortLine, error) {
			o.ID = "order-2"
			o.Items[0].Quantity = 1
			o.Total = o.Items[0].Subtotal()
			return []ShortLine{{ProductID: "A", Requested: 2, Granted: 1}}, nil
		}}
		engine, carts := newPlacementFixture(products, repo)

		if err := carts.Add(ctx, sid, buyer, "A", 2); err != nil {
			t.Fatalf("add: %v", err)
		}

		o, short, err := engine.PlaceOrder(ctx, sid, buyer, validShipping())
		if err != nil {
			t.Fatalf("place order: %v", err)
		}
		if len(short) != 1 || short[0].Granted != 1 {
			t.Fatalf("expected short line, got %+v", short)
		}
		if !o.Total.Equal(decimal.RequireFromString("10.00")) {
			t.Fatalf("total %s, want 10.00 for granted quantity", o.Total)
		}
	})

	t.Run("all lines clamped to zero become empty cart", func(t *testing.T) {
		repo := &fakeOrderRepo{placeFunc: func(ctx context.Context, o *Order) ([]ShortLine, error) {
			return []ShortLine{{ProductID: "A", Requested: 2, Granted: 0}}, ErrNoGrantableItems
		}}
		engine, carts := newPlacementFixture(products, repo)

		if err := carts.Add(ctx, sid, buyer, "A", 2); err != nil {
			t.Fatalf("add: %v", err)
		}

		_, _, err := engine.PlaceOrder(ctx, sid, buyer, validShipping())
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})

	t.Run("repository error surfaces", func(t *testing.T) {
		repoErr := errors.New("db down")
		repo := &fakeOrderRepo{placeFunc: func(ctx context.Context, o *Order) ([]ShortLine, error) {
			return nil, repoErr
		}}
		engine, carts := newPlacementFixture(products, repo)

		if err := carts.Add(ctx, sid, buyer, "A", 1); err != nil {
			t.Fatalf("add: %v", err)
		}

		_, _, err := engine.PlaceOrder(ctx, sid, buyer, validShipping())
		if !errors.Is(err, repoErr) {
			t.Fatalf("expected repo error, got %v", err)
		}

		// cart survives a failed placement
		count, err := carts.Count(ctx, sid)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 1 {
			t.Fatalf("cart cleared despite failure, count %d", count)
		}
	})
}
