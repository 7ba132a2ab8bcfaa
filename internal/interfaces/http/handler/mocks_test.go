package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, job string, params batch.Params) (*batch.Task, error) {
	args := m.Called(ctx, job, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Task), args.Error(1)
}

type MockTaskReader struct {
	mock.Mock
}

func (m *MockTaskReader) Task(ctx context.Context, id uuid.UUID) (*batch.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Task), args.Error(1)
}

type staticCatalog []string

func (c staticCatalog) Names() []string { return c }

type MockSaveHooks struct {
	mock.Mock
}

func (m *MockSaveHooks) ReturnAuthorizationCreated(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSaveHooks) ReturnAuthorizationEdited(ctx context.Context, id uuid.UUID) (*batch.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Task), args.Error(1)
}

func (m *MockSaveHooks) ItemReceiptCreated(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSaveHooks) SalesOrderEdited(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSaveHooks) FulfillmentSaved(ctx context.Context, id uuid.UUID) (*batch.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Task), args.Error(1)
}

// serve runs one request against a router holding a single route
func serve(t *testing.T, method, pattern, target, body string, h gin.HandlerFunc) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	router := gin.New()
	router.Handle(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}
