package response

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthorized", apperr.New(apperr.ErrUnauthorized, "op", "unauthorized access"), http.StatusUnauthorized},
		{"not found", apperr.New(apperr.ErrNotFound, "op", "product not found"), http.StatusNotFound},
		{"invalid argument", apperr.New(apperr.ErrInvalidArgument, "op", "invalid id"), http.StatusBadRequest},
		{"conflict", apperr.New(apperr.ErrConflict, "op", "store already exists"), http.StatusConflict},
		{"canceled", apperr.Wrap(apperr.ErrUpstream, "op", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"upstream", apperr.Wrap(apperr.ErrUpstream, "op", errors.New("db down")), http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFail_HidesCause(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	Fail(w, req, apperr.Wrap(apperr.ErrUpstream, "storage.GetUser", errors.New("password=secret")))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"status":"Error","error":"upstream failure"}`, w.Body.String())
}

func TestInvalid(t *testing.T) {
	type body struct {
		Email string `validate:"required,email"`
	}
	err := validator.New().Struct(body{Email: "not-an-email"})
	require.Error(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	Invalid(w, req, err)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "field Email must be a valid email")

	w = httptest.NewRecorder()
	Invalid(w, req, errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}
