package create

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateStore(ctx context.Context, info models.StoreInfo) (models.InsertResult, error) {
	args := m.Called(ctx, info)
	return args.Get(0).(models.InsertResult), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	valid := `{"owner_email":"o@shop.com","name":"Corner","address":"Main st 1"}`
	info := models.StoreInfo{OwnerEmail: "o@shop.com", Name: "Corner", Address: "Main st 1"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("CreateStore", mock.Anything, info).Return(models.InsertResult{InsertedID: "1"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"inserted_id":"1"`,
		},
		{
			name: "second store for the same owner",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("CreateStore", mock.Anything, info).Return(models.InsertResult{},
					apperr.New(apperr.ErrConflict, "tenant.CreateStore", "store already exists")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"store already exists"`,
		},
		{
			name:           "missing address",
			body:           `{"owner_email":"o@shop.com","name":"Corner"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Address is a required field`,
		},
		{
			name:           "negative quota",
			body:           `{"owner_email":"o@shop.com","name":"Corner","address":"a","remaining_quota":-1}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/stores", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
