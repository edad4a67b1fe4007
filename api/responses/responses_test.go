package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/types"
)

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return body
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("payload = %v, want hello=world", body.Data)
	}
}

func TestWriteError(t *testing.T) {
	cases := map[string]struct {
		err         error
		wantStatus  int
		wantCode    pkgerrors.Code
		wantMessage string
		wantDetails bool
	}{
		"typed validation error": {
			err: pkgerrors.New(pkgerrors.CodeValidation, "bad input").
				WithDetails(map[string]string{"field": "demo"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    pkgerrors.CodeValidation,
			wantMessage: "bad input",
			wantDetails: true,
		},
		"seat limit message reaches the client": {
			err:         pkgerrors.New(pkgerrors.CodeSeatLimit, "all seats are in use"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    pkgerrors.CodeSeatLimit,
			wantMessage: "all seats are in use",
		},
		"untyped errors collapse to internal": {
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			body := decodeErrorBody(t, w)
			if body.Error.Code != string(tc.wantCode) {
				t.Fatalf("code = %s, want %s", body.Error.Code, tc.wantCode)
			}
			if body.Error.Message != tc.wantMessage {
				t.Fatalf("message = %q, want %q", body.Error.Message, tc.wantMessage)
			}
			if tc.wantDetails && body.Error.Details == nil {
				t.Fatal("details missing from client payload")
			}
			if !tc.wantDetails && body.Error.Details != nil {
				t.Fatalf("details = %v, want none", body.Error.Details)
			}
		})
	}
}
