package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/api/middleware"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
)

func educatorFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.EducatorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "educator context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid educator context")
	}
	return id, nil
}

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
