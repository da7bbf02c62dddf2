package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/identity"
)

// getCart returns the caller's lines with details and the checkout summary.
// Anonymous callers get an empty cart.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.carts.ItemsWithDetails(ctx, identity.FromContext(ctx))
	if err != nil {
		fail(w, r, err)
		return
	}
	plain := make([]cart.Item, len(items))
	for i, it := range items {
		plain[i] = it.Item
	}
	summary := cart.Summarize(cart.Sum(plain))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.ArrStart()
				for _, it := range items {
					h.encCartItem(e, it)
				}
				e.ArrEnd()
			})
			e.Field("summary", func(e *jx.Encoder) { encSummary(e, summary) })
		})
	})
}

func (h *Handler) cartTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totals, err := h.carts.Totals(ctx, identity.FromContext(ctx))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encSummary(e, cart.Summarize(totals)) })
}

// unitPrice looks up the current price of the referenced record. Clients
// never supply prices.
func (h *Handler) unitPrice(ctx context.Context, user identity.UserID, ref cart.ItemRef) (decimal.Decimal, error) {
	switch ref.Kind() {
	case cart.RefProduct:
		p, err := h.catalog.Product(ctx, ref.ID())
		if err != nil {
			return decimal.Decimal{}, err
		}
		return p.Price, nil
	case cart.RefPrebuilt:
		c, err := h.catalog.Prebuilt(ctx, ref.ID())
		if err != nil {
			return decimal.Decimal{}, err
		}
		return c.Price, nil
	case cart.RefCustomBuild:
		b, err := h.builds.Get(ctx, user, ref.ID())
		if err != nil {
			return decimal.Decimal{}, err
		}
		return b.TotalPrice, nil
	}
	return decimal.Decimal{}, cart.ErrInvalidItemRef
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := identity.FromContext(ctx)
	if err := user.Require(); err != nil {
		fail(w, r, err)
		return
	}
	ref, qty, err := decodeAddItem(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if qty <= 0 {
		fail(w, r, cart.ErrInvalidQuantity)
		return
	}
	price, err := h.unitPrice(ctx, user, ref)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := h.carts.AddToCart(ctx, user, ref, qty, price)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.cartAdds.Add(ctx, 1)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) { str(e, "id", id) })
	})
}

// updateCartItem sets a line's quantity; zero or less removes the line.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	qty, err := decodeQuantity(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.UpdateQuantity(ctx, identity.FromContext(ctx), r.PathValue("id"), qty); err != nil {
		fail(w, r, err)
		return
	}
	writeNoContent(w)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.carts.RemoveItem(ctx, identity.FromContext(ctx), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	writeNoContent(w)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.carts.Clear(ctx, identity.FromContext(ctx)); err != nil {
		fail(w, r, err)
		return
	}
	writeNoContent(w)
}
