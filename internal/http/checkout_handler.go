package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/amnamine/AccessoiresHF/internal/order"
)

type OrderEventsPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *order.Order) error
}

type CheckoutHandler struct {
	placement      *order.PlacementEngine
	eventPublisher OrderEventsPublisher
	logger         *log.Logger
}

func NewCheckoutHandler(placement *order.PlacementEngine, eventPublisher OrderEventsPublisher, logger *log.Logger) *CheckoutHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &CheckoutHandler{placement: placement, eventPublisher: eventPublisher, logger: logger}
}

type checkoutResponse struct {
	Order *order.Order      `json:"order"`
	Short []order.ShortLine `json:"short,omitempty"`
}

// Checkout places an order for the session's cart. The response carries the
// committed order plus any lines that were granted less than requested
// because stock shrank since the cart was last viewed.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	var shipping order.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, short, err := h.placement.PlaceOrder(ctx, sid, actorFrom(r), shipping)
	if err != nil {
		var verr *order.ValidationError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "your cart is empty")
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid shipping info",
				"fields": verr.Fields,
			})
		case o != nil:
			// order committed, a follow-up step failed
			h.logger.Printf("checkout: order %s placed with trailing error: %v", o.ID, err)
			h.publish(ctx, o)
			writeJSON(w, http.StatusCreated, checkoutResponse{Order: o, Short: short})
		default:
			writeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	h.publish(ctx, o)
	writeJSON(w, http.StatusCreated, checkoutResponse{Order: o, Short: short})
}

func (h *CheckoutHandler) publish(ctx context.Context, o *order.Order) {
	if h.eventPublisher == nil {
		return
	}
	if err := h.eventPublisher.PublishOrderPlaced(ctx, o); err != nil {
		h.logger.Printf("checkout: publish OrderPlaced for %s: %v", o.ID, err)
	}
}
