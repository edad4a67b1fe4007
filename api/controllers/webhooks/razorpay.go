package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/univlive/univlive-backend/api/responses"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, body []byte, signature, eventID string) error
}

// RazorpayWebhook receives subscription lifecycle events from the gateway.
// A 2xx acknowledges the delivery; anything else makes Razorpay redeliver.
func RazorpayWebhook(svc RazorpayWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get("X-Razorpay-Signature"))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "razorpay signature missing"))
			return
		}
		eventID := strings.TrimSpace(r.Header.Get("X-Razorpay-Event-Id"))

		if err := svc.HandleEvent(ctx, payload, signature, eventID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
