// Package handler exposes the storefront over HTTP. Bodies are encoded and
// decoded with go-faster/jx.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses. When
	// empty, image paths are returned as stored.
	ImageBaseURL string
	// MeterProvider defaults to a no-op provider.
	MeterProvider metric.MeterProvider
}

// Services are the domain dependencies of the Handler.
type Services struct {
	Catalog *catalog.Query
	Builds  *build.Service
	Carts   *cart.Service
	Orders  *order.Service
}

// Handler serves the /api routes.
type Handler struct {
	catalog *catalog.Query
	builds  *build.Service
	carts   *cart.Service
	orders  *order.Service

	imageBaseURL string

	cartAdds    metric.Int64Counter
	ordersTotal metric.Int64Counter
	evaluations metric.Int64Counter
}

// New constructs a Handler.
func New(cfg Config, svc Services) (*Handler, error) {
	mp := cfg.MeterProvider
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter("github.com/xenking/rigforge/internal/handler")

	h := &Handler{
		catalog:      svc.Catalog,
		builds:       svc.Builds,
		carts:        svc.Carts,
		orders:       svc.Orders,
		imageBaseURL: cfg.ImageBaseURL,
	}
	var err error
	if h.cartAdds, err = meter.Int64Counter("cart.items_added",
		metric.WithDescription("Cart lines added or merged"),
	); err != nil {
		return nil, errors.Wrap(err, "cart counter")
	}
	if h.ordersTotal, err = meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if h.evaluations, err = meter.Int64Counter("builder.evaluations",
		metric.WithDescription("Configurator selections evaluated"),
	); err != nil {
		return nil, errors.Wrap(err, "evaluations counter")
	}
	return h, nil
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, routed(fn))
	}

	handle("GET /api/categories", h.listCategories)
	handle("GET /api/products", h.listProducts)
	handle("GET /api/products/featured", h.featuredProducts)
	handle("GET /api/products/search", h.searchProducts)
	handle("GET /api/products/{id}", h.getProduct)
	handle("GET /api/prebuilts", h.listPrebuilts)
	handle("GET /api/prebuilts/{id}", h.getPrebuilt)

	handle("GET /api/builder/slots", h.listSlots)
	handle("GET /api/builder/slots/{slot}/components", h.slotComponents)
	handle("POST /api/builder/evaluate", h.evaluate)
	handle("POST /api/builder/cart", h.addSelectionToCart)

	handle("POST /api/builds", h.saveBuild)
	handle("GET /api/builds", h.listBuilds)
	handle("GET /api/builds/{id}", h.getBuild)
	handle("POST /api/builds/{id}/cart", h.addBuildToCart)

	handle("GET /api/cart", h.getCart)
	handle("GET /api/cart/totals", h.cartTotals)
	handle("POST /api/cart/items", h.addCartItem)
	handle("PATCH /api/cart/items/{id}", h.updateCartItem)
	handle("DELETE /api/cart/items/{id}", h.removeCartItem)
	handle("DELETE /api/cart", h.clearCart)

	handle("POST /api/orders", h.placeOrder)
	handle("GET /api/orders", h.listOrders)
	handle("GET /api/orders/{number}", h.getOrder)
}

// routed names the server span after the matched route.
func routed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
			span.SetName(r.Pattern)
			span.SetAttributes(attribute.String("http.route", r.Pattern))
		}
		next(w, r)
	})
}
