package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/urbanshoes/storefront/api/middleware"
	"github.com/urbanshoes/storefront/api/responses"
	"github.com/urbanshoes/storefront/api/validators"
	"github.com/urbanshoes/storefront/internal/cart"
	"github.com/urbanshoes/storefront/internal/catalog"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
)

type cartSnapshot struct {
	SessionID string          `json:"session_id"`
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	LastError string          `json:"last_error,omitempty"`
}

func snapshotOf(engine *cart.Engine) cartSnapshot {
	snap := cartSnapshot{
		SessionID: engine.SessionID(),
		Lines:     engine.Lines(),
		Total:     engine.Total(),
		ItemCount: engine.ItemCount(),
	}
	if err := engine.LastErr(); err != nil {
		snap.LastError = err.Error()
	}
	return snap
}

func sessionEngine(r *http.Request, manager *cart.Manager) (*cart.Engine, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing")
	}
	return manager.Engine(r.Context(), sessionID)
}

// GetCart returns the session's cart snapshot with totals.
func GetCart(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshotOf(engine))
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"qty" validate:"required,min=1"`
}

// AddCartItem merges a product from the live catalog into the cart. Products
// absent from the snapshot or out of stock are rejected here; the cart itself
// does not gate on stock.
func AddCartItem(manager *cart.Manager, catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := catalogSvc.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !record.InStock() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock"))
			return
		}

		engine, err := sessionEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := engine.Add(r.Context(), cart.Product{
			ID:        record.ID,
			Name:      record.Name,
			UnitPrice: record.Price,
			Image:     record.Image,
		}, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, snapshotOf(engine))
	}
}

type updateCartItemRequest struct {
	Quantity *int `json:"qty" validate:"required,min=0"`
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func UpdateCartItem(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := sessionEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := engine.SetQuantity(r.Context(), productID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshotOf(engine))
	}
}

// RemoveCartItem deletes one line from the cart.
func RemoveCartItem(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		engine, err := sessionEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := engine.Remove(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshotOf(engine))
	}
}

// ClearCart empties the session's cart.
func ClearCart(manager *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, err := sessionEngine(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := engine.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshotOf(engine))
	}
}
