package order

import (
	"testing"

	"github.com/amnamine/AccessoiresHF/internal/identity"
)

func TestCanView(t *testing.T) {
	buyerOrder := &Order{
		ID:      "o1",
		BuyerID: "bob",
		Items: []Item{
			{ProductID: "p1", SellerID: "john", Quantity: 1},
			{ProductID: "p2", SellerID: "jane", Quantity: 2},
			{ProductID: "p3", Quantity: 1}, // house inventory, no seller
		},
	}
	guestOrder := &Order{ID: "o2", Items: []Item{{ProductID: "p1", SellerID: "john", Quantity: 1}}}

	tests := map[string]struct {
		order *Order
		actor identity.Actor
		want  bool
	}{
		"staff sees any order":              {buyerOrder, identity.Actor{ID: "admin", Staff: true}, true},
		"buyer sees own order":              {buyerOrder, identity.Actor{ID: "bob"}, true},
		"first seller sees order":           {buyerOrder, identity.Actor{ID: "john"}, true},
		"second seller sees order":          {buyerOrder, identity.Actor{ID: "jane"}, true},
		"unrelated user denied":             {buyerOrder, identity.Actor{ID: "alice"}, false},
		"unauthenticated denied":            {buyerOrder, identity.Actor{}, false},
		"guest order hidden from sellers":   {guestOrder, identity.Actor{ID: "john"}, false},
		"guest order visible to staff":      {guestOrder, identity.Actor{ID: "admin", Staff: true}, true},
		"guest order hidden from anonymous": {guestOrder, identity.Actor{}, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CanView(tt.order, tt.actor); got != tt.want {
				t.Fatalf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewDoesNotMatchEmptySeller(t *testing.T) {
	// an unauthenticated-style empty id must never match a house line's
	// empty seller reference
	o := &Order{ID: "o1", BuyerID: "bob", Items: []Item{{ProductID: "p1", Quantity: 1}}}
	if CanView(o, identity.Actor{ID: ""}) {
		t.Fatal("empty actor id matched empty seller id")
	}
}
