package controllers

import (
	"net/http"
	"strings"

	"github.com/univlive/univlive-backend/api/responses"
	"github.com/univlive/univlive-backend/internal/tenants"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

// TenantResolve maps a request host (or an explicit ?tenant= override during
// local development) to the educator storefront it belongs to.
func TenantResolve(svc tenants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		host := strings.TrimSpace(r.URL.Query().Get("host"))
		if host == "" {
			host = r.Host
		}
		tenantParam := strings.TrimSpace(r.URL.Query().Get(svc.LocalhostParam()))

		result, err := svc.Resolve(r.Context(), host, tenantParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
