package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJobHandler_List(t *testing.T) {
	h := NewJobHandler(staticCatalog{"fso_close", "store_csv"}, new(MockSubmitter), new(MockTaskReader))

	w, resp := serve(t, http.MethodGet, "/jobs", "/jobs", "", h.List)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"fso_close", "store_csv"}, resp.Data.(map[string]any)["jobs"])
}

func TestJobHandler_Submit(t *testing.T) {
	submitter := new(MockSubmitter)
	task := batch.NewTask("cumulative_recognition", batch.Params{"billed_status": "Billed"}, 3)
	submitter.On("Submit", mock.Anything, "cumulative_recognition", batch.Params{"billed_status": "Billed"}).Return(task, nil)
	h := NewJobHandler(staticCatalog{}, submitter, new(MockTaskReader))

	w, resp := serve(t, http.MethodPost, "/jobs/:name/runs", "/jobs/cumulative_recognition/runs",
		`{"params":{"billed_status":"Billed"}}`, h.Submit)

	require.Equal(t, http.StatusAccepted, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, task.ID.String(), data["id"])
	assert.Equal(t, "PENDING", data["status"])
	submitter.AssertExpectations(t)
}

func TestJobHandler_Submit_WithoutBody(t *testing.T) {
	submitter := new(MockSubmitter)
	submitter.On("Submit", mock.Anything, "fso_close", batch.Params(nil)).Return(batch.NewTask("fso_close", nil, 3), nil)
	h := NewJobHandler(staticCatalog{}, submitter, new(MockTaskReader))

	w, _ := serve(t, http.MethodPost, "/jobs/:name/runs", "/jobs/fso_close/runs", "", h.Submit)

	assert.Equal(t, http.StatusAccepted, w.Code)
	submitter.AssertExpectations(t)
}

func TestJobHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown job", shared.NewDomainError("UNKNOWN_JOB", "unknown job: nope"), http.StatusNotFound, dto.ErrCodeUnknownJob},
		{"queue full", shared.NewDomainError("QUEUE_FULL", "job queue is full"), http.StatusServiceUnavailable, dto.ErrCodeQueueFull},
		{"missing parameter", shared.NewMissingParameterError("folder"), http.StatusUnprocessableEntity, dto.ErrCodeMissingParameter},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := new(MockSubmitter)
			submitter.On("Submit", mock.Anything, "nope", batch.Params(nil)).Return(nil, tt.err)
			h := NewJobHandler(staticCatalog{}, submitter, new(MockTaskReader))

			w, resp := serve(t, http.MethodPost, "/jobs/:name/runs", "/jobs/nope/runs", "", h.Submit)

			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestJobHandler_Submit_MalformedBody(t *testing.T) {
	submitter := new(MockSubmitter)
	h := NewJobHandler(staticCatalog{}, submitter, new(MockTaskReader))

	w, resp := serve(t, http.MethodPost, "/jobs/:name/runs", "/jobs/fso_close/runs", `{"params":`, h.Submit)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobHandler_GetRun(t *testing.T) {
	reader := new(MockTaskReader)
	task := batch.NewTask("store_csv", nil, 3)
	task.Start()
	reader.On("Task", mock.Anything, task.ID).Return(task, nil)
	missing := uuid.New()
	reader.On("Task", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	h := NewJobHandler(staticCatalog{}, new(MockSubmitter), reader)

	t.Run("found", func(t *testing.T) {
		w, resp := serve(t, http.MethodGet, "/jobs/runs/:id", "/jobs/runs/"+task.ID.String(), "", h.GetRun)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "RUNNING", resp.Data.(map[string]any)["status"])
	})

	t.Run("not found", func(t *testing.T) {
		w, resp := serve(t, http.MethodGet, "/jobs/runs/:id", "/jobs/runs/"+missing.String(), "", h.GetRun)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w, resp := serve(t, http.MethodGet, "/jobs/runs/:id", "/jobs/runs/abc", "", h.GetRun)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}
