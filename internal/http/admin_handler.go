package http

import (
	"context"
	"net/http"
	"time"

	"github.com/amnamine/AccessoiresHF/internal/catalog"
	"github.com/amnamine/AccessoiresHF/internal/order"
)

type AdminHandler struct {
	orders   order.Repository
	products catalog.Repository
}

func NewAdminHandler(orders order.Repository, products catalog.Repository) *AdminHandler {
	return &AdminHandler{orders: orders, products: products}
}

type dashboardStats struct {
	TotalOrders        int `json:"totalOrders"`
	PendingOrders      int `json:"pendingOrders"`
	LowStockProducts   int `json:"lowStockProducts"`
	OutOfStockProducts int `json:"outOfStockProducts"`
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).Staff {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	total, pending, err := h.orders.Counts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	low, out, err := h.products.StockCounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, dashboardStats{
		TotalOrders:        total,
		PendingOrders:      pending,
		LowStockProducts:   low,
		OutOfStockProducts: out,
	})
}
