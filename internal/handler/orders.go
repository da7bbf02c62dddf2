package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/rigforge/internal/domain/identity"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := identity.FromContext(ctx)
	if err := user.Require(); err != nil {
		fail(w, r, err)
		return
	}
	req, err := decodePlaceOrder(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.PlaceOrder(ctx, user, req)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.ordersTotal.Add(ctx, 1)
	zctx.From(ctx).Info("Order placed",
		zap.String("order", o.Number),
		zap.String("total", o.Total.StringFixed(2)),
	)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.orders.Get(ctx, identity.FromContext(ctx), r.PathValue("number"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}
