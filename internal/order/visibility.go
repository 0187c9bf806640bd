package order

import "github.com/amnamine/AccessoiresHF/internal/identity"

// CanView reports whether the actor may view the order: staff always, the
// buyer, or any seller represented in the order's line items. Guest orders
// (no buyer) are visible to staff only. Callers must surface a false result
// as "not found", never "forbidden", so order existence does not leak.
func CanView(o *Order, actor identity.Actor) bool {
	if actor.Staff {
		return true
	}
	if !actor.Authenticated() {
		return false
	}
	if o.BuyerID == "" {
		return false
	}
	if o.BuyerID == actor.ID {
		return true
	}
	for _, it := range o.Items {
		if it.SellerID != "" && it.SellerID == actor.ID {
			return true
		}
	}
	return false
}
