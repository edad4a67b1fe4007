package controllers

import (
	"net/http"

	"github.com/univlive/univlive-backend/api/responses"
	"github.com/univlive/univlive-backend/api/validators"
	"github.com/univlive/univlive-backend/internal/billing"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type subscribeRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type verifyPaymentRequest struct {
	RazorpayPaymentID      string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySubscriptionID string `json:"razorpay_subscription_id" validate:"required"`
	RazorpaySignature      string `json:"razorpay_signature" validate:"required"`
}

type cancelSubscriptionRequest struct {
	AtCycleEnd bool `json:"at_cycle_end"`
}

// BillingSubscribe opens a checkout session for a seat subscription.
func BillingSubscribe(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body subscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.StartSubscription(r.Context(), educatorID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// BillingVerifyPayment confirms the client-side checkout signature and
// optimistically activates the subscription.
func BillingVerifyPayment(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), educatorID, billing.VerifyPaymentInput{
			PaymentID:      body.RazorpayPaymentID,
			SubscriptionID: body.RazorpaySubscriptionID,
			Signature:      body.RazorpaySignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// BillingCancel requests cancellation with the gateway; local state follows
// from the webhook.
func BillingCancel(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelSubscription(r.Context(), educatorID, body.AtCycleEnd); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancellation_requested"})
	}
}

// BillingOverview returns the educator's subscription snapshot with seat usage.
func BillingOverview(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.GetSubscriptionOverview(r.Context(), educatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}

// BillingInvoices lists gateway invoices recorded for the educator.
func BillingInvoices(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoices, err := svc.ListInvoices(r.Context(), educatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"invoices": invoices})
	}
}
