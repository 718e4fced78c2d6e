package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursepass/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCodeService is a mock implementation of CodeService.
type MockCodeService struct {
	mock.Mock
}

func (m *MockCodeService) GenerateShared(ctx context.Context, req *model.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockCodeService) GenerateBatch(ctx context.Context, req *model.GenerateRequest) ([]string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestCodeHandler_Generate_SharedMode(t *testing.T) {
	logger := zerolog.Nop()

	mockService := new(MockCodeService)
	mockService.On("GenerateShared", mock.Anything, mock.MatchedBy(func(req *model.GenerateRequest) bool {
		return !req.BatchMode && req.QuantityOrLimit == 3 && req.CustomCodeOrPrefix == "PROMO"
	})).Return("PROMO", nil)

	h := NewCodeHandler(mockService, logger)

	body, err := json.Marshal(model.GenerateRequest{
		CourseIDs:          []string{"go-101", "go-201"},
		QuantityOrLimit:    3,
		CustomCodeOrPrefix: "PROMO",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/access-codes", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Generate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp model.GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "PROMO", resp.Code)
	assert.Empty(t, resp.Codes)

	mockService.AssertExpectations(t)
	mockService.AssertNotCalled(t, "GenerateBatch", mock.Anything, mock.Anything)
}

func TestCodeHandler_Generate_BatchMode(t *testing.T) {
	logger := zerolog.Nop()

	codes := []string{"SCH-AAAA2222", "SCH-BBBB3333", "SCH-CCCC4444"}
	mockService := new(MockCodeService)
	mockService.On("GenerateBatch", mock.Anything, mock.MatchedBy(func(req *model.GenerateRequest) bool {
		return req.BatchMode && req.QuantityOrLimit == 3
	})).Return(codes, nil)

	h := NewCodeHandler(mockService, logger)

	body, err := json.Marshal(model.GenerateRequest{
		CourseIDs:          []string{"go-101"},
		QuantityOrLimit:    3,
		CustomCodeOrPrefix: "SCH",
		BatchMode:          true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/access-codes", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Generate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp model.GenerateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, codes, resp.Codes)
	assert.Empty(t, resp.Code)
}

func TestCodeHandler_Generate_Errors(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		method         string
		requestBody    interface{}
		setupMock      func(*MockCodeService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Method not allowed",
			method:         http.MethodGet,
			setupMock:      func(m *MockCodeService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "Invalid JSON",
			method:         http.MethodPost,
			requestBody:    "{nope",
			setupMock:      func(m *MockCodeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  model.ErrCodeInvalidJSON,
		},
		{
			name:           "Missing course IDs",
			method:         http.MethodPost,
			requestBody:    model.GenerateRequest{QuantityOrLimit: 3},
			setupMock:      func(m *MockCodeService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  model.ErrCodeMissingField,
		},
		{
			name:        "Unknown course",
			method:      http.MethodPost,
			requestBody: model.GenerateRequest{CourseIDs: []string{"missing"}, QuantityOrLimit: 3},
			setupMock: func(m *MockCodeService) {
				m.On("GenerateShared", mock.Anything, mock.Anything).Return("", model.ErrCourseNotFound)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  model.ErrCodeCourseNotFound,
		},
		{
			name:        "Duplicate custom code",
			method:      http.MethodPost,
			requestBody: model.GenerateRequest{CourseIDs: []string{"go-101"}, QuantityOrLimit: 3, CustomCodeOrPrefix: "TAKEN"},
			setupMock: func(m *MockCodeService) {
				m.On("GenerateShared", mock.Anything, mock.Anything).Return("", model.ErrGenericFailure)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  model.ErrCodeGenericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCodeService)
			tt.setupMock(mockService)

			h := NewCodeHandler(mockService, logger)

			var body bytes.Buffer
			if s, ok := tt.requestBody.(string); ok {
				body.WriteString(s)
			} else if tt.requestBody != nil {
				require.NoError(t, json.NewEncoder(&body).Encode(tt.requestBody))
			}

			req := httptest.NewRequest(tt.method, "/api/access-codes", &body)
			w := httptest.NewRecorder()

			h.Generate(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				var resp model.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Error)
			}

			mockService.AssertExpectations(t)
		})
	}
}
