package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/order"
)

const maxBodySize = 1 << 20

// decodeBody runs fn over the fields of the JSON object in the request body.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return badRequest("invalid JSON body", err)
	}
	return nil
}

// decPicks reads {"cpu": "<product id>", ...}. Null values leave a slot empty.
func decPicks(d *jx.Decoder) (map[build.Slot]string, error) {
	picks := make(map[build.Slot]string)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		id, err := d.Str()
		if err != nil {
			return err
		}
		picks[build.Slot(key)] = id
		return nil
	})
	return picks, err
}

type selectionRequest struct {
	Components map[build.Slot]string
}

func decodeSelection(r *http.Request) (selectionRequest, error) {
	var req selectionRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "components" {
			return d.Skip()
		}
		picks, err := decPicks(d)
		req.Components = picks
		return err
	})
	return req, err
}

type saveBuildRequest struct {
	Name       string
	Public     bool
	Components map[build.Slot]string
}

func decodeSaveBuild(r *http.Request) (saveBuildRequest, error) {
	var req saveBuildRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "isPublic":
			req.Public, err = d.Bool()
		case "components":
			req.Components, err = decPicks(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

type addItemRequest struct {
	Kind     string
	ItemID   string
	Quantity int
}

func decodeAddItem(r *http.Request) (cart.ItemRef, int, error) {
	req := addItemRequest{Quantity: 1}
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			req.Kind, err = d.Str()
		case "itemId":
			req.ItemID, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return cart.ItemRef{}, 0, err
	}
	kind, ok := cart.ParseRefKind(req.Kind)
	if !ok {
		return cart.ItemRef{}, 0, cart.ErrInvalidItemRef
	}
	ref, err := cart.NewItemRef(kind, req.ItemID)
	if err != nil {
		return cart.ItemRef{}, 0, err
	}
	return ref, req.Quantity, nil
}

func decodeQuantity(r *http.Request) (int, error) {
	var (
		qty int
		set bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		set = true
		v, err := d.Int()
		qty = v
		return err
	})
	if err == nil && !set {
		err = badRequest("quantity required", nil)
	}
	return qty, err
}

func decodePlaceOrder(r *http.Request) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "paymentMethod":
			v, err := d.Str()
			req.PaymentMethod = v
			return err
		case "shippingAddress":
			a := &req.ShippingAddress
			return d.Obj(func(d *jx.Decoder, key string) error {
				var dst *string
				switch key {
				case "name":
					dst = &a.Name
				case "address":
					dst = &a.Address
				case "city":
					dst = &a.City
				case "state":
					dst = &a.State
				case "zipCode":
					dst = &a.ZipCode
				case "country":
					dst = &a.Country
				default:
					return d.Skip()
				}
				v, err := d.Str()
				*dst = v
				return err
			})
		}
		return d.Skip()
	})
	return req, err
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("invalid "+name, err)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, badRequest("invalid "+name, err)
	}
	return &b, nil
}
