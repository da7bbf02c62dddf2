// Package catalogfeed reads catalog records from seed files and supplier
// feeds. Records use the same field names as the HTTP API.
package catalogfeed

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/rigforge/internal/domain/catalog"
)

// Seed is a complete catalog snapshot.
type Seed struct {
	Categories []catalog.Category
	Products   []catalog.Product
	Prebuilts  []catalog.PrebuiltConfig
}

// DecodeSeed parses {"categories": [...], "products": [...], "prebuilts": [...]}.
func DecodeSeed(data []byte) (*Seed, error) {
	var s Seed
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "categories":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := DecodeCategory(d)
				s.Categories = append(s.Categories, c)
				return err
			})
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				p, err := DecodeProduct(d)
				s.Products = append(s.Products, p)
				return err
			})
		case "prebuilts":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := DecodePrebuilt(d)
				s.Prebuilts = append(s.Prebuilts, c)
				return err
			})
		}
		return d.Skip()
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	return &s, nil
}

// DecodeCategory reads a category object.
func DecodeCategory(d *jx.Decoder) (catalog.Category, error) {
	var c catalog.Category
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decStr(d, &c.ID)
		case "name":
			return decStr(d, &c.Name)
		case "slug":
			return decStr(d, &c.Slug)
		case "description":
			return decStr(d, &c.Description)
		}
		return d.Skip()
	})
	if err == nil && (c.ID == "" || c.Slug == "") {
		err = errors.New("category id and slug required")
	}
	return c, err
}

// DecodeProduct reads a product object. Type defaults to component.
func DecodeProduct(d *jx.Decoder) (catalog.Product, error) {
	p := catalog.Product{Type: catalog.TypeComponent, InStock: true}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decStr(d, &p.ID)
		case "name":
			return decStr(d, &p.Name)
		case "slug":
			return decStr(d, &p.Slug)
		case "categoryId":
			return decStr(d, &p.CategoryID)
		case "type":
			var t string
			if err := decStr(d, &t); err != nil {
				return err
			}
			p.Type = catalog.ProductType(t)
			return nil
		case "price":
			return decMoney(d, &p.Price)
		case "originalPrice":
			return decOptMoney(d, &p.OriginalPrice)
		case "description":
			return decStr(d, &p.Description)
		case "specifications":
			return decSpecs(d, &p.Specs)
		case "images":
			return decStrings(d, &p.Images)
		case "inStock":
			return decBool(d, &p.InStock)
		case "stockCount":
			return decInt(d, &p.StockCount)
		case "featured":
			return decBool(d, &p.Featured)
		case "performanceScore":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var v int
			if err := decInt(d, &v); err != nil {
				return err
			}
			p.PerformanceScore = &v
			return nil
		}
		return d.Skip()
	})
	if err != nil {
		return p, err
	}
	return p, validateProduct(p)
}

func validateProduct(p catalog.Product) error {
	switch {
	case p.ID == "" || p.Slug == "" || p.Name == "":
		return errors.New("product id, slug and name required")
	case p.CategoryID == "":
		return errors.Errorf("product %q: categoryId required", p.ID)
	case !p.Type.Valid():
		return errors.Errorf("product %q: invalid type %q", p.ID, p.Type)
	case p.Price.IsNegative():
		return errors.Errorf("product %q: negative price", p.ID)
	}
	return nil
}

// DecodePrebuilt reads a pre-built config object.
func DecodePrebuilt(d *jx.Decoder) (catalog.PrebuiltConfig, error) {
	c := catalog.PrebuiltConfig{InStock: true}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decStr(d, &c.ID)
		case "name":
			return decStr(d, &c.Name)
		case "slug":
			return decStr(d, &c.Slug)
		case "tier":
			var t string
			if err := decStr(d, &t); err != nil {
				return err
			}
			c.Tier = catalog.Tier(t)
			return nil
		case "price":
			return decMoney(d, &c.Price)
		case "originalPrice":
			return decOptMoney(d, &c.OriginalPrice)
		case "description":
			return decStr(d, &c.Description)
		case "targetUse":
			return decStrings(d, &c.TargetUse)
		case "components":
			return decComponents(d, &c.Components)
		case "performance":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "gaming":
					return decInt(d, &c.Scores.Gaming)
				case "productivity":
					return decInt(d, &c.Scores.Productivity)
				case "streaming":
					return decInt(d, &c.Scores.Streaming)
				}
				return d.Skip()
			})
		case "images":
			return decStrings(d, &c.Images)
		case "featured":
			return decBool(d, &c.Featured)
		case "inStock":
			return decBool(d, &c.InStock)
		}
		return d.Skip()
	})
	if err != nil {
		return c, err
	}
	if c.ID == "" || c.Slug == "" {
		return c, errors.New("prebuilt id and slug required")
	}
	if !c.Tier.Valid() {
		return c, errors.Errorf("prebuilt %q: invalid tier %q", c.ID, c.Tier)
	}
	return c, nil
}

func decComponents(d *jx.Decoder, c *catalog.Components) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "cpu":
			dst = &c.CPU
		case "gpu":
			dst = &c.GPU
		case "motherboard":
			dst = &c.Motherboard
		case "ram":
			dst = &c.RAM
		case "storage":
			dst = &c.Storage
		case "psu":
			dst = &c.PSU
		case "case":
			dst = &c.Case
		case "cooling":
			dst = &c.Cooling
		default:
			return d.Skip()
		}
		return decStr(d, dst)
	})
}

func decSpecs(d *jx.Decoder, s *catalog.Specifications) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "brand":
			return decStr(d, &s.Brand)
		case "model":
			return decStr(d, &s.Model)
		case "performance":
			return decStr(d, &s.Performance)
		case "socket":
			return decStr(d, &s.Socket)
		case "power":
			return decInt(d, &s.Power)
		case "compatibility":
			return decStrings(d, &s.Compatibility)
		}
		return d.Skip()
	})
}

// decStr reads a string; null leaves dst unchanged.
func decStr(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decInt(d *jx.Decoder, dst *int) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decBool(d *jx.Decoder, dst *bool) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Bool()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decStrings(d *jx.Decoder, dst *[]string) error {
	out := []string{}
	if err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		out = append(out, v)
		return err
	}); err != nil {
		return err
	}
	*dst = out
	return nil
}

// decMoney accepts a JSON number or a numeric string.
func decMoney(d *jx.Decoder, dst *decimal.Decimal) error {
	var raw string
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return err
		}
		raw = v
	default:
		n, err := d.Num()
		if err != nil {
			return err
		}
		raw = string(n)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrapf(err, "parse price %q", raw)
	}
	*dst = v
	return nil
}

func decOptMoney(d *jx.Decoder, dst *decimal.NullDecimal) error {
	if d.Next() == jx.Null {
		*dst = decimal.NullDecimal{}
		return d.Null()
	}
	if err := decMoney(d, &dst.Decimal); err != nil {
		return err
	}
	dst.Valid = true
	return nil
}
