package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/shared"
	csvimport "github.com/erp/revrec/internal/infrastructure/import"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// RecreateCSVJob reads back today's csv1 export as header-keyed rows
type RecreateCSVJob struct {
	files  FileStore
	params batch.Params
	now    func() time.Time
}

// NewRecreateCSVJob creates a new RecreateCSVJob
func NewRecreateCSVJob(files FileStore, params batch.Params) *RecreateCSVJob {
	return &RecreateCSVJob{files: files, params: params, now: time.Now}
}

// Name returns the job name
func (j *RecreateCSVJob) Name() string { return JobRecreateCSV }

// Recreate returns the rows of today's file. A folder without today's file
// yields no rows and no error.
func (j *RecreateCSVJob) Recreate(ctx context.Context) ([]map[string]string, error) {
	folder, err := j.params.Require(ParamFolder)
	if err != nil {
		return nil, err
	}

	key := FileKey(folder, j.now(), RecreateFileName)
	data, err := j.files.Get(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		logger.L(ctx).Info("No CSV for today", zap.String("file", key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	parser, err := csvimport.ParseFromBytes(data)
	if errors.Is(err, csvimport.ErrEmptyFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		logger.L(ctx).Debug("Row", zap.Int("line", row.LineNumber), zap.Any("data", row.Data))
		records = append(records, row.Data)
	}
	return records, nil
}

// Run parses today's file and reports the number of rows read
func (j *RecreateCSVJob) Run(ctx context.Context) (*batch.Summary, error) {
	ctx = logger.WithJob(ctx, JobRecreateCSV)
	summary := &batch.Summary{Job: JobRecreateCSV, StartedAt: time.Now()}

	records, err := j.Recreate(ctx)
	if err != nil {
		return nil, err
	}
	summary.Total = len(records)
	summary.Succeeded = len(records)
	summary.FinishedAt = time.Now()
	logger.L(ctx).Info("CSV recreated", zap.Int("rows", len(records)))
	return summary, nil
}
