package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/cart"
)

type CartHandler struct {
	engine *cart.Engine
}

func NewCartHandler(engine *cart.Engine) *CartHandler {
	return &CartHandler{engine: engine}
}

type cartView struct {
	Items []cart.Line     `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// GetCart returns the freshly materialized view: quantities re-clamped to
// live stock, prices from the stored snapshots.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.engine.Materialize(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	view := cartView{Items: lines, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []cart.Line{}
	}
	for _, ln := range lines {
		view.Total = view.Total.Add(ln.Subtotal)
		view.Count += ln.Quantity
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.engine.Add(ctx, sid, actorFrom(r), body.ProductID, body.Quantity); err != nil {
		writeCartError(w, err)
		return
	}

	h.GetCart(w, r)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.engine.SetQuantity(ctx, sid, actorFrom(r), productID, body.Quantity); err != nil {
		writeCartError(w, err)
		return
	}

	h.GetCart(w, r)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.engine.Remove(ctx, sid, productID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	h.GetCart(w, r)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFrom(r)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing session")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.engine.Clear(ctx, sid); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrProductUnavailable):
		writeError(w, http.StatusNotFound, "product not found or inactive")
	case errors.Is(err, cart.ErrSelfPurchase):
		writeError(w, http.StatusConflict, "you cannot purchase your own listing")
	default:
		writeError(w, http.StatusInternalServerError, "failed to update cart")
	}
}
