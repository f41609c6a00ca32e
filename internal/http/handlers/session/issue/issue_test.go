package issue

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/services/session"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Issue(ctx context.Context, claims session.Claims) (string, error) {
	args := m.Called(ctx, claims)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestIssueHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		secure         bool
		setupMock      func(*MockService)
		expectedStatus int
		wantSameSite   http.SameSite
	}{
		{
			name:   "strict cookie for plain http",
			body:   `{"email":"o@shop.com","role":"owner"}`,
			secure: false,
			setupMock: func(m *MockService) {
				m.On("Issue", mock.Anything, session.Claims{Email: "o@shop.com", Role: "owner"}).Return("tok", nil).Once()
			},
			expectedStatus: http.StatusOK,
			wantSameSite:   http.SameSiteStrictMode,
		},
		{
			name:   "cross-site cookie when secure",
			body:   `{"email":"o@shop.com"}`,
			secure: true,
			setupMock: func(m *MockService) {
				m.On("Issue", mock.Anything, session.Claims{Email: "o@shop.com"}).Return("tok", nil).Once()
			},
			expectedStatus: http.StatusOK,
			wantSameSite:   http.SameSiteNoneMode,
		},
		{
			name:           "missing email",
			body:           `{"role":"owner"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "broken json",
			body:           `{"email":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, Cookie{Name: "token", TTL: 365 * 24 * time.Hour, Secure: tt.secure})

			req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
			if tt.expectedStatus != http.StatusOK {
				assert.Empty(t, w.Result().Cookies())
				return
			}

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			c := cookies[0]
			assert.Equal(t, "token", c.Name)
			assert.Equal(t, "tok", c.Value)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, tt.secure, c.Secure)
			assert.Equal(t, tt.wantSameSite, c.SameSite)
			assert.Equal(t, 365*24*3600, c.MaxAge)
			assert.Contains(t, w.Body.String(), `"success":true`)
		})
	}
}
