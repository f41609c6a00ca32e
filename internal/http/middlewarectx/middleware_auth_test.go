package middlewarectx_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/quick-stock/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/services/session"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (session.Claims, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(session.Claims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSessionMiddleware(t *testing.T) {
	unauthorized := apperr.New(apperr.ErrUnauthorized, "session.Verify", "unauthorized access")

	tests := []struct {
		name           string
		cookie         string
		authHeader     string
		wantToken      string
		verifyErr      error
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "no token at all",
			wantToken:      "",
			verifyErr:      unauthorized,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid cookie",
			cookie:         "forged",
			wantToken:      "forged",
			verifyErr:      unauthorized,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid cookie",
			cookie:         "good",
			wantToken:      "good",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "bearer fallback",
			authHeader:     "Bearer good",
			wantToken:      "good",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "cookie wins over header",
			cookie:         "good",
			authHeader:     "Bearer other",
			wantToken:      "good",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "basic auth is ignored",
			authHeader:     "Basic dXNlcjpwYXNz",
			wantToken:      "",
			verifyErr:      unauthorized,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(VerifierMock)
			claims := session.Claims{}
			if tt.verifyErr == nil {
				claims = session.Claims{Email: "o@shop.com", Role: "manager"}
			}
			verifier.On("Verify", mock.Anything, tt.wantToken).Return(claims, tt.verifyErr).Once()

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				email, ok := middlewarectx.EmailFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "o@shop.com", email)
				assert.Equal(t, "manager", r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/o@shop.com", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.SessionMiddleware(verifier, "token", newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			verifier.AssertExpectations(t)
		})
	}
}
