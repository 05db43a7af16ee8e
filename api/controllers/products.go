package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/urbanshoes/storefront/api/responses"
	"github.com/urbanshoes/storefront/api/validators"
	"github.com/urbanshoes/storefront/internal/catalog"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
)

const maxSearchLen = 100

// ListProducts serves the browse view: filtered, sorted, paginated catalog
// pages with the derived category list.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		filters := catalog.Filters{
			Search:      validators.SanitizeString(query.Get("q"), maxSearchLen),
			Category:    validators.SanitizeString(query.Get("category"), maxSearchLen),
			PriceBucket: validators.SanitizeString(query.Get("price"), maxSearchLen),
			Sort:        validators.SanitizeString(query.Get("sort"), maxSearchLen),
			Page:        page,
		}
		// Stateless over HTTP: normalizing against itself fills the
		// pass-all defaults without a page reset.
		filters = filters.Normalize(filters)

		result, err := svc.Browse(filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetProduct serves a single product from the live snapshot.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID := chi.URLParam(r, "productId")
		record, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}
