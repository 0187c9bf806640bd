package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Catalog  *CatalogHandler
	Admin    *AdminHandler
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", deps.Catalog.ListProducts)
		r.Get("/{productId}", deps.Catalog.GetProduct)
		r.Put("/{productId}", deps.Catalog.UpdateListing)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", deps.Cart.GetCart)
		r.Post("/items", deps.Cart.AddItem)
		r.Put("/items/{productId}", deps.Cart.UpdateItem)
		r.Delete("/items/{productId}", deps.Cart.RemoveItem)
		r.Delete("/", deps.Cart.ClearCart)
	})

	r.Post("/api/checkout", deps.Checkout.Checkout)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", deps.Orders.ListMyOrders)
		r.Get("/{orderId}", deps.Orders.GetOrder)
		r.Put("/{orderId}/status", deps.Orders.UpdateStatus)
	})

	r.Get("/api/admin/dashboard", deps.Admin.Dashboard)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}
