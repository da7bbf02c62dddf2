package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

func queryType(r *http.Request) (catalog.ProductType, error) {
	t := catalog.ProductType(r.URL.Query().Get("type"))
	if t != "" && !t.Valid() {
		return "", badRequest("invalid type", nil)
	}
	return t, nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range cats {
			encCategory(e, c)
		}
		e.ArrEnd()
	})
}

// listProducts serves ?category=<slug>&type=<component|prebuilt>&limit=<n>.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	typ, err := queryType(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	products, err := h.catalog.ListByCategory(r.Context(), catalog.ListParams{
		CategorySlug: r.URL.Query().Get("category"),
		Type:         typ,
		Limit:        limit,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encProducts(e, products) })
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Featured(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encProducts(e, products) })
}

// searchProducts serves ?q=<term>&categoryId=<id>&type=<type>.
func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	typ, err := queryType(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	q := r.URL.Query()
	products := []catalog.Product{}
	if term := q.Get("q"); term != "" {
		products, err = h.catalog.Search(r.Context(), catalog.SearchParams{
			Term:       term,
			CategoryID: q.Get("categoryId"),
			Type:       typ,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encProducts(e, products) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encProduct(e, p) })
}

// listPrebuilts serves ?tier=<tier>&featured=<bool>.
func (h *Handler) listPrebuilts(w http.ResponseWriter, r *http.Request) {
	tier := catalog.Tier(r.URL.Query().Get("tier"))
	if tier != "" && !tier.Valid() {
		fail(w, r, badRequest("invalid tier", nil))
		return
	}
	featured, err := queryBool(r, "featured")
	if err != nil {
		fail(w, r, err)
		return
	}
	configs, err := h.catalog.ListPrebuilt(r.Context(), catalog.PrebuiltFilter{Tier: tier, Featured: featured})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range configs {
			h.encPrebuilt(e, &configs[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) getPrebuilt(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalog.Prebuilt(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encPrebuilt(e, c) })
}
