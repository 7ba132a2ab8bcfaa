package handler

import (
	"errors"
	"io"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/interfaces/http/dto"
	"github.com/erp/revrec/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// JobCatalog lists the registered jobs
type JobCatalog interface {
	Names() []string
}

// JobHandler submits job runs and reports their state
type JobHandler struct {
	BaseHandler
	catalog JobCatalog
	tasks   batch.Submitter
	reader  batch.TaskReader
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(catalog JobCatalog, tasks batch.Submitter, reader batch.TaskReader) *JobHandler {
	return &JobHandler{catalog: catalog, tasks: tasks, reader: reader}
}

// List returns the names of all registered jobs
//
// GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	h.Success(c, dto.JobListResponse{Jobs: h.catalog.Names()})
}

// Submit queues one run of the named job. The body is optional.
//
// POST /api/v1/jobs/:name/runs
func (h *JobHandler) Submit(c *gin.Context) {
	var uri dto.JobNameRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	task, err := h.tasks.Submit(c.Request.Context(), uri.Name, batch.Params(req.Params))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.ToTaskResponse(task))
}

// GetRun returns the state of a submitted run
//
// GET /api/v1/jobs/runs/:id
func (h *JobHandler) GetRun(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	task, err := h.reader.Task(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToTaskResponse(task))
}
