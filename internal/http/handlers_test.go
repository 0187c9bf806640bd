package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/cart"
	"github.com/amnamine/AccessoiresHF/internal/catalog"
	"github.com/amnamine/AccessoiresHF/internal/identity"
	"github.com/amnamine/AccessoiresHF/internal/order"
	"github.com/amnamine/AccessoiresHF/internal/session"
)

// fakeCatalog is a map-backed catalog.Repository sharing the real ownership
// rules, so handler tests see the same error surface as production.
type fakeCatalog struct {
	products map[string]catalog.Product
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	m := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeCatalog{products: m}
}

func (f *fakeCatalog) Get(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ListActiveByIDs(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product)
	for _, id := range productIDs {
		if p, ok := f.products[id]; ok && p.IsActive {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateListing(ctx context.Context, p catalog.Product, actor identity.Actor) error {
	current, ok := f.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if !catalog.CanManage(current, actor) {
		return catalog.ErrOwnership
	}
	current.Name = p.Name
	current.Description = p.Description
	current.Price = p.Price
	current.Stock = p.Stock
	current.IsActive = p.IsActive
	f.products[p.ID] = current
	return nil
}

func (f *fakeCatalog) StockCounts(ctx context.Context) (int, int, error) {
	var low, out int
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		switch {
		case p.Stock == 0:
			out++
		case p.Stock <= catalog.LowStockThreshold:
			low++
		}
	}
	return low, out, nil
}

type fakeOrderRepo struct {
	placeFunc        func(ctx context.Context, o *order.Order) ([]order.ShortLine, error)
	getByIDFunc      func(ctx context.Context, orderID string) (*order.Order, error)
	listByBuyerFunc  func(ctx context.Context, buyerID string) ([]order.Order, error)
	updateStatusFunc func(ctx context.Context, orderID string, status order.Status) error
	countsFunc       func(ctx context.Context) (int, int, error)
}

func (f *fakeOrderRepo) Place(ctx context.Context, o *order.Order) ([]order.ShortLine, error) {
	if f.placeFunc != nil {
		return f.placeFunc(ctx, o)
	}
	o.ID = "order-1"
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.Total = total
	return nil, nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]order.Order, error) {
	if f.listByBuyerFunc != nil {
		return f.listByBuyerFunc(ctx, buyerID)
	}
	return nil, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID string, status order.Status) error {
	if f.updateStatusFunc != nil {
		return f.updateStatusFunc(ctx, orderID, status)
	}
	return nil
}

func (f *fakeOrderRepo) Counts(ctx context.Context) (int, int, error) {
	if f.countsFunc != nil {
		return f.countsFunc(ctx)
	}
	return 0, 0, nil
}

type publisherSpy struct {
	calls []string
	err   error
}

func (p *publisherSpy) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	p.calls = append(p.calls, o.ID)
	return p.err
}

type testApp struct {
	router   http.Handler
	carts    *cart.Engine
	sessions session.Store
	orders   *fakeOrderRepo
	catalog  *fakeCatalog
	pub      *publisherSpy
}

func newTestApp(t *testing.T, products ...catalog.Product) *testApp {
	t.Helper()
	return newTestAppWithStore(t, session.NewMemoryStore(), products...)
}

func newTestAppWithStore(t *testing.T, store session.Store, products ...catalog.Product) *testApp {
	t.Helper()

	cat := newFakeCatalog(products...)
	carts := cart.NewEngine(store, cat)
	orders := &fakeOrderRepo{}
	pub := &publisherSpy{}
	placement := order.NewPlacementEngine(orders, carts)
	logger := log.New(io.Discard, "", 0)

	router := NewRouter(RouterDeps{
		Cart:     NewCartHandler(carts),
		Checkout: NewCheckoutHandler(placement, pub, logger),
		Orders:   NewOrderHandler(orders),
		Catalog:  NewCatalogHandler(cat),
		Admin:    NewAdminHandler(orders, cat),
	})

	return &testApp{
		router:   router,
		carts:    carts,
		sessions: store,
		orders:   orders,
		catalog:  cat,
		pub:      pub,
	}
}

type reqOpts struct {
	session string
	user    string
	staff   bool
}

func (a *testApp) do(t *testing.T, method, path, body string, opts reqOpts) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if opts.session != "" {
		req.Header.Set(HeaderSessionID, opts.session)
	}
	if opts.user != "" {
		req.Header.Set(HeaderUserID, opts.user)
	}
	if opts.staff {
		req.Header.Set(HeaderUserStaff, "true")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func newCookieRequest(method, path, sessionID string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionID})
	return req
}

func recordRequest(a *testApp, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func activeProduct(id, seller, price string, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "product " + id,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		SellerID: seller,
		IsActive: true,
	}
}
