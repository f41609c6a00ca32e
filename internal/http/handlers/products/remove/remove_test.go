package remove

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Remove(ctx context.Context, id string) (models.DeleteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.DeleteResult), args.Error(1)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	const id = "5b0f8e0e-5c1b-4d55-9a51-7f1de0a0c001"

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "deleted",
			id:   id,
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, id).Return(models.DeleteResult{DeletedCount: 1}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted_count":1`,
		},
		{
			name: "already gone",
			id:   id,
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, id).Return(models.DeleteResult{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted_count":0`,
		},
		{
			name: "malformed id always gets a response",
			id:   "not-a-uuid",
			setupMock: func(m *MockService) {
				m.On("Remove", mock.Anything, "not-a-uuid").Return(models.DeleteResult{},
					apperr.New(apperr.ErrInvalidArgument, "inventory.Remove", "invalid product id")).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid product id"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodDelete, "/products/item/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
