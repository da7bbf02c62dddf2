package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/identity"
)

func (h *Handler) saveBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := identity.FromContext(ctx)
	if err := user.Require(); err != nil {
		fail(w, r, err)
		return
	}
	req, err := decodeSaveBuild(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	sel, err := h.builds.Resolve(ctx, req.Components)
	if err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.builds.Save(ctx, user, req.Name, req.Public, sel)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encBuild(e, b) })
}

func (h *Handler) listBuilds(w http.ResponseWriter, r *http.Request) {
	builds, err := h.builds.List(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range builds {
			encBuild(e, &builds[i])
		}
		e.ArrEnd()
	})
}

// getBuild returns a saved build evaluated against current catalog data.
func (h *Handler) getBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.builds.Get(ctx, identity.FromContext(ctx), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	sel, err := h.builds.Load(ctx, b)
	if err != nil {
		fail(w, r, err)
		return
	}
	ev := build.Evaluate(sel)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("build", func(e *jx.Encoder) { encBuild(e, b) })
			e.Field("evaluation", func(e *jx.Encoder) { h.encEvaluation(e, sel, ev) })
		})
	})
}

// addBuildToCart adds a saved build as a single custom-build line priced at
// its current total. The build must still be submittable.
func (h *Handler) addBuildToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := identity.FromContext(ctx)
	if err := user.Require(); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.builds.Get(ctx, user, r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	sel, err := h.builds.Load(ctx, b)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !build.CanSubmit(sel) {
		fail(w, r, &cart.BuildNotSubmittableError{
			Missing: sel.Missing(),
			Issues:  build.CheckCompatibility(sel),
		})
		return
	}
	id, err := h.carts.AddToCart(ctx, user, cart.CustomBuildRef(b.ID), 1, build.TotalPrice(sel).Round(2))
	if err != nil {
		fail(w, r, err)
		return
	}
	h.cartAdds.Add(ctx, 1)
	writeItemIDs(w, []string{id})
}
