package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Money is encoded as a JSON number with two decimals.
func encMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encOptMoney(e *jx.Encoder, name string, d decimal.NullDecimal) {
	if d.Valid {
		e.Field(name, func(e *jx.Encoder) { encMoney(e, d.Decimal) })
	}
}

func encStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func encTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func str(e *jx.Encoder, name, v string) {
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func boolean(e *jx.Encoder, name string, v bool) {
	e.Field(name, func(e *jx.Encoder) { e.Bool(v) })
}

func integer(e *jx.Encoder, name string, v int) {
	e.Field(name, func(e *jx.Encoder) { e.Int(v) })
}

func (h *Handler) images(e *jx.Encoder, images []string) {
	e.ArrStart()
	for _, img := range images {
		if h.imageBaseURL != "" && !strings.Contains(img, "://") {
			img = h.imageBaseURL + img
		}
		e.Str(img)
	}
	e.ArrEnd()
}

func encCategory(e *jx.Encoder, c catalog.Category) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", c.ID)
		str(e, "name", c.Name)
		str(e, "slug", c.Slug)
		str(e, "description", c.Description)
	})
}

func encSpecs(e *jx.Encoder, s catalog.Specifications) {
	e.Obj(func(e *jx.Encoder) {
		if s.Brand != "" {
			str(e, "brand", s.Brand)
		}
		if s.Model != "" {
			str(e, "model", s.Model)
		}
		if s.Performance != "" {
			str(e, "performance", s.Performance)
		}
		if s.Socket != "" {
			str(e, "socket", s.Socket)
		}
		if s.Power != 0 {
			integer(e, "power", s.Power)
		}
		if len(s.Compatibility) > 0 {
			e.Field("compatibility", func(e *jx.Encoder) { encStrings(e, s.Compatibility) })
		}
	})
}

func (h *Handler) encProduct(e *jx.Encoder, p *catalog.Product) {
	if p == nil {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", p.ID)
		str(e, "name", p.Name)
		str(e, "slug", p.Slug)
		str(e, "categoryId", p.CategoryID)
		str(e, "type", string(p.Type))
		e.Field("price", func(e *jx.Encoder) { encMoney(e, p.Price) })
		encOptMoney(e, "originalPrice", p.OriginalPrice)
		str(e, "description", p.Description)
		e.Field("specifications", func(e *jx.Encoder) { encSpecs(e, p.Specs) })
		e.Field("images", func(e *jx.Encoder) { h.images(e, p.Images) })
		boolean(e, "inStock", p.InStock)
		integer(e, "stockCount", p.StockCount)
		boolean(e, "featured", p.Featured)
		if p.PerformanceScore != nil {
			integer(e, "performanceScore", *p.PerformanceScore)
		}
	})
}

func (h *Handler) encProducts(e *jx.Encoder, products []catalog.Product) {
	e.ArrStart()
	for i := range products {
		h.encProduct(e, &products[i])
	}
	e.ArrEnd()
}

func (h *Handler) encPrebuilt(e *jx.Encoder, c *catalog.PopulatedPrebuilt) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", c.ID)
		str(e, "name", c.Name)
		str(e, "slug", c.Slug)
		str(e, "tier", string(c.Tier))
		e.Field("price", func(e *jx.Encoder) { encMoney(e, c.Price) })
		encOptMoney(e, "originalPrice", c.OriginalPrice)
		str(e, "description", c.Description)
		e.Field("targetUse", func(e *jx.Encoder) { encStrings(e, c.TargetUse) })
		e.Field("performance", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				integer(e, "gaming", c.Scores.Gaming)
				integer(e, "productivity", c.Scores.Productivity)
				integer(e, "streaming", c.Scores.Streaming)
			})
		})
		e.Field("components", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, ref := range c.Components.Refs() {
					e.Field(ref.Slot, func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							str(e, "id", ref.ProductID)
							e.Field("product", func(e *jx.Encoder) { h.encProduct(e, c.Parts[ref.Slot]) })
						})
					})
				}
			})
		})
		e.Field("images", func(e *jx.Encoder) { h.images(e, c.Images) })
		boolean(e, "featured", c.Featured)
		boolean(e, "inStock", c.InStock)
	})
}

func encSlots(e *jx.Encoder, slots []build.Slot) {
	e.ArrStart()
	for _, s := range slots {
		e.Str(string(s))
	}
	e.ArrEnd()
}

func (h *Handler) encEvaluation(e *jx.Encoder, sel build.Selection, ev build.Evaluation) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("components", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, slot := range sel.Filled() {
					e.Field(string(slot), func(e *jx.Encoder) { h.encProduct(e, sel.Get(slot)) })
				}
			})
		})
		e.Field("totalPrice", func(e *jx.Encoder) { encMoney(e, ev.Total) })
		e.Field("issues", func(e *jx.Encoder) { encStrings(e, ev.Issues) })
		e.Field("missing", func(e *jx.Encoder) { encSlots(e, ev.Missing) })
		boolean(e, "complete", ev.Complete)
		boolean(e, "submittable", ev.Submittable)
	})
}

func encBuild(e *jx.Encoder, b *build.CustomBuild) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", b.ID)
		str(e, "userId", b.UserID.String())
		str(e, "name", b.Name)
		e.Field("components", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, info := range build.Slots() {
					if id, ok := b.Components[info.Slot]; ok {
						str(e, string(info.Slot), id)
					}
				}
			})
		})
		e.Field("totalPrice", func(e *jx.Encoder) { encMoney(e, b.TotalPrice) })
		boolean(e, "isPublic", b.Public)
		e.Field("compatibilityIssues", func(e *jx.Encoder) { encStrings(e, b.Issues) })
		e.Field("createdAt", func(e *jx.Encoder) { encTime(e, b.CreatedAt) })
	})
}

func (h *Handler) encCartItem(e *jx.Encoder, it cart.ItemWithDetails) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", it.ID)
		str(e, "type", it.Ref.Kind().String())
		str(e, "itemId", it.Ref.ID())
		integer(e, "quantity", it.Quantity)
		e.Field("price", func(e *jx.Encoder) { encMoney(e, it.Price) })
		e.Field("lineTotal", func(e *jx.Encoder) { encMoney(e, it.LineTotal()) })
		e.Field("details", func(e *jx.Encoder) {
			d := it.Detail
			switch {
			case d.Product != nil:
				h.encProduct(e, d.Product)
			case d.Prebuilt != nil:
				h.encPrebuilt(e, &catalog.PopulatedPrebuilt{PrebuiltConfig: *d.Prebuilt})
			case d.Build != nil:
				encBuild(e, d.Build)
			default:
				e.Null()
			}
		})
	})
}

func encSummary(e *jx.Encoder, s cart.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, s.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encMoney(e, s.Tax) })
		e.Field("shipping", func(e *jx.Encoder) { encMoney(e, s.Shipping) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, s.Total) })
		integer(e, "itemCount", s.ItemCount)
	})
}

func encAddress(e *jx.Encoder, a order.Address) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "name", a.Name)
		str(e, "address", a.Address)
		str(e, "city", a.City)
		str(e, "state", a.State)
		str(e, "zipCode", a.ZipCode)
		str(e, "country", a.Country)
	})
}

func encOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		str(e, "id", o.ID)
		str(e, "orderNumber", o.Number)
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for _, it := range o.Items {
				e.Obj(func(e *jx.Encoder) {
					str(e, "type", it.Kind)
					str(e, "itemId", it.ItemID)
					str(e, "name", it.Name)
					integer(e, "quantity", it.Quantity)
					e.Field("price", func(e *jx.Encoder) { encMoney(e, it.Price) })
				})
			}
			e.ArrEnd()
		})
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, o.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encMoney(e, o.Tax) })
		e.Field("shipping", func(e *jx.Encoder) { encMoney(e, o.Shipping) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, o.Total) })
		str(e, "status", string(o.Status))
		str(e, "paymentStatus", string(o.PaymentStatus))
		e.Field("shippingAddress", func(e *jx.Encoder) { encAddress(e, o.ShippingAddress) })
		str(e, "paymentMethod", o.PaymentMethod)
		e.Field("createdAt", func(e *jx.Encoder) { encTime(e, o.CreatedAt) })
	})
}
