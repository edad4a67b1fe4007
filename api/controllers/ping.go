package controllers

import (
	"net/http"

	"github.com/univlive/univlive-backend/api/middleware"
	"github.com/univlive/univlive-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if educator := middleware.EducatorIDFromContext(r.Context()); educator != "" {
			payload["educator_id"] = educator
		}
		responses.WriteSuccess(w, payload)
	}
}
