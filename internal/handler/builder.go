package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
)

func (h *Handler) listSlots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, s := range build.Slots() {
			e.Obj(func(e *jx.Encoder) {
				str(e, "slot", string(s.Slot))
				str(e, "name", s.Name)
				boolean(e, "required", s.Required)
				str(e, "category", s.Category)
			})
		}
		e.ArrEnd()
	})
}

// slotComponents lists the components that can fill a slot.
func (h *Handler) slotComponents(w http.ResponseWriter, r *http.Request) {
	info, ok := build.Lookup(build.Slot(r.PathValue("slot")))
	if !ok {
		fail(w, r, build.ErrInvalidSlot)
		return
	}
	products, err := h.catalog.ListByCategory(r.Context(), catalog.ListParams{
		CategorySlug: info.Category,
		Type:         catalog.TypeComponent,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encProducts(e, products) })
}

func (h *Handler) resolveSelection(ctx context.Context, r *http.Request) (build.Selection, error) {
	req, err := decodeSelection(r)
	if err != nil {
		return build.Selection{}, err
	}
	return h.builds.Resolve(ctx, req.Components)
}

// evaluate prices and checks a selection without storing anything.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel, err := h.resolveSelection(ctx, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ev := build.Evaluate(sel)
	h.evaluations.Add(ctx, 1)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encEvaluation(e, sel, ev) })
}

// addSelectionToCart adds every part of a submittable selection to the cart.
func (h *Handler) addSelectionToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := identity.FromContext(ctx)
	if err := user.Require(); err != nil {
		fail(w, r, err)
		return
	}
	sel, err := h.resolveSelection(ctx, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ids, err := h.carts.AddBuild(ctx, user, sel)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.cartAdds.Add(ctx, int64(len(ids)))
	writeItemIDs(w, ids)
}

func writeItemIDs(w http.ResponseWriter, ids []string) {
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("itemIds", func(e *jx.Encoder) { encStrings(e, ids) })
		})
	})
}
