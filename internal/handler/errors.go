package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
)

// badRequestError is a malformed request body or query.
type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &badRequestError{msg: msg, err: err}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	var (
		bad         *badRequestError
		missingPart *build.ComponentNotFoundError
		notReady    *cart.BuildNotSubmittableError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, build.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidItemRef),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, build.ErrInvalidSlot),
		errors.Is(err, build.ErrEmptyName),
		errors.Is(err, order.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.As(err, &missingPart),
		errors.As(err, &notReady),
		errors.Is(err, order.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrCartChanged):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"code", "message"}. Internal errors are logged and
// their details hidden from the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("route", r.Pattern),
			zap.Error(err),
		)
		msg = "internal error"
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
