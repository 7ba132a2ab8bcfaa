package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StoreCSVJob writes the rows of each configured search to a dated CSV file
type StoreCSVJob struct {
	searches SearchRunner
	files    FileStore
	params   batch.Params
	limit    int
	now      func() time.Time
}

// NewStoreCSVJob creates a new StoreCSVJob
func NewStoreCSVJob(searches SearchRunner, files FileStore, params batch.Params) *StoreCSVJob {
	return &StoreCSVJob{searches: searches, files: files, params: params, now: time.Now}
}

// WithLimit bounds the rows of each search
func (j *StoreCSVJob) WithLimit(limit int) *StoreCSVJob {
	j.limit = limit
	return j
}

func (j *StoreCSVJob) Name() string { return JobStoreCSV }

// Run stores one file per search. Both parameters are required; a failing
// search is recorded in the summary and the remaining searches still run.
func (j *StoreCSVJob) Run(ctx context.Context) (*batch.Summary, error) {
	folder, err := j.params.Require(ParamFolder)
	if err != nil {
		return nil, err
	}
	ids, err := j.params.Require(ParamSearchIDs)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithJob(ctx, JobStoreCSV)
	refs := ParseSearchRefs(ids)
	today := j.now()
	summary := &batch.Summary{Job: JobStoreCSV, Total: len(refs), StartedAt: time.Now()}

	for _, ref := range refs {
		key := FileKey(folder, today, ref.Name)
		if err := j.store(ctx, ref.ID, key); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, batch.CandidateError{Key: ref.ID, Error: err.Error()})
			logger.L(ctx).Error("Failed to store search as CSV",
				zap.String("search_id", ref.ID),
				zap.String("file", key),
				zap.Error(err),
			)
			continue
		}
		summary.Succeeded++
		logger.L(ctx).Info("CSV created", zap.String("search_id", ref.ID), zap.String("file", key))
	}

	summary.FinishedAt = time.Now()
	return summary, nil
}

func (j *StoreCSVJob) store(ctx context.Context, searchID, key string) error {
	table, err := j.searches.Run(ctx, searchID, j.limit)
	if err != nil {
		return err
	}
	data, err := encodeTable(table)
	if err != nil {
		return fmt.Errorf("encode %s: %w", searchID, err)
	}
	return j.files.Put(ctx, key, data, "text/csv")
}

func encodeTable(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
