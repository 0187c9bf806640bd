package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/catalog"
)

type CatalogHandler struct {
	repo catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.repo.ListActive(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if !p.IsActive && !actorFrom(r).Staff && !catalog.CanManage(p, actorFrom(r)) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type updateListingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	IsActive    bool   `json:"isActive"`
}

// UpdateListing mutates a listing's seller-editable fields. Only the
// listing's seller or staff may call it.
func (h *CatalogHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var body updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	if body.Stock < 0 {
		writeError(w, http.StatusBadRequest, "invalid stock")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := catalog.Product{
		ID:          productID,
		Name:        body.Name,
		Description: body.Description,
		Price:       price,
		Stock:       body.Stock,
		IsActive:    body.IsActive,
	}
	if err := h.repo.UpdateListing(ctx, p, actorFrom(r)); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, catalog.ErrOwnership):
			writeError(w, http.StatusForbidden, "you do not own this listing")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update listing")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
