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

func (m *MockService) Add(ctx context.Context, info models.ProductInfo) (models.InsertResult, error) {
	args := m.Called(ctx, info)
	return args.Get(0).(models.InsertResult), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	body := `{"owner_email":"o@shop.com","name":"Milk","quantity":10,"price":1.5}`
	info := models.ProductInfo{OwnerEmail: "o@shop.com", Name: "Milk", Quantity: 10, Price: 1.5}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "added",
			body: body,
			setupMock: func(m *MockService) {
				m.On("Add", mock.Anything, info).
					Return(models.InsertResult{InsertedID: "5b0f8e0e-5c1b-4d55-9a51-7f1de0a0c001"}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"inserted_id":"5b0f8e0e-5c1b-4d55-9a51-7f1de0a0c001"`,
		},
		{
			name: "quota exhausted",
			body: body,
			setupMock: func(m *MockService) {
				m.On("Add", mock.Anything, info).Return(models.InsertResult{},
					apperr.New(apperr.ErrConflict, "inventory.Add", "product quota exhausted")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"product quota exhausted"`,
		},
		{
			name:           "negative quantity",
			body:           `{"owner_email":"o@shop.com","name":"Milk","quantity":-1}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "not json",
			body:           `milk`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
