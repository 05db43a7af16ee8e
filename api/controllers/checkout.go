package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/urbanshoes/storefront/api/middleware"
	"github.com/urbanshoes/storefront/api/responses"
	"github.com/urbanshoes/storefront/api/validators"
	"github.com/urbanshoes/storefront/internal/checkout"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
)

func sessionID(r *http.Request) (string, error) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing")
	}
	return id, nil
}

// CheckoutStatus reports where the session's checkout currently is.
func CheckoutStatus(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Status(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// SubmitCheckout validates the shipping form and starts a payment attempt.
func SubmitCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var form checkout.ShippingForm
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Submit(r.Context(), id, form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, session)
	}
}

// ConfirmCheckout records the gateway's confirmation payload and completes
// the checkout. The payload shape is the gateway's, so it is taken as-is.
func ConfirmCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		defer io.Copy(io.Discard, r.Body)
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		session, err := svc.Confirm(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}
