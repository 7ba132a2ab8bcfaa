package recognition

import (
	"strconv"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/shared"
)

// Parameter names accepted on submission. They override Settings.
const (
	ParamBilledStatus        = "billed_status"
	ParamCumulativeEventType = "cumulative_event_type"
)

// Settings are the configured job parameters
type Settings struct {
	BilledStatus        string
	CumulativeEventType int
	OverstatedSearch    string
}

// Register adds every recognition job to the catalog
func Register(catalog *batch.Catalog, runner *batch.Runner, deps Dependencies, s Settings) {
	catalog.Register(JobItemReceipt, func(batch.Params) (batch.Runnable, error) {
		return runner.Bind(NewItemReceiptJob(deps)), nil
	})
	catalog.Register(JobReturnAuthorization, func(batch.Params) (batch.Runnable, error) {
		return runner.Bind(NewReturnAuthorizationJob(deps)), nil
	})
	catalog.Register(JobFulfillmentReturnBSO, func(p batch.Params) (batch.Runnable, error) {
		return runner.Bind(NewFulfillmentReturnBSOJob(deps, p)), nil
	})
	catalog.Register(JobFSOClose, func(batch.Params) (batch.Runnable, error) {
		return runner.Bind(NewFSOCloseJob(deps)), nil
	})
	catalog.Register(JobFulfillmentRevenue, func(p batch.Params) (batch.Runnable, error) {
		return runner.Bind(NewFulfillmentRevenueJob(deps, p)), nil
	})
	catalog.Register(JobCumulativeRecognition, func(p batch.Params) (batch.Runnable, error) {
		cfg, err := cumulativeConfig(s, p)
		if err != nil {
			return nil, err
		}
		return runner.Bind(NewCumulativeRecognitionJob(deps, cfg)), nil
	})
	catalog.Register(JobOverstatedCleanup, func(p batch.Params) (batch.Runnable, error) {
		search := s.OverstatedSearch
		if v := p.Get(ParamOverstatedSearch); v != "" {
			search = v
		}
		return runner.Bind(NewOverstatedCleanupJob(deps, search)), nil
	})
}

func cumulativeConfig(s Settings, p batch.Params) (CumulativeConfig, error) {
	cfg := CumulativeConfig{BilledStatus: s.BilledStatus, EventType: s.CumulativeEventType}
	if v := p.Get(ParamBilledStatus); v != "" {
		cfg.BilledStatus = v
	}
	if v := p.Get(ParamCumulativeEventType); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, shared.NewDomainError(shared.ErrInvalidInput.Code, "invalid "+ParamCumulativeEventType+": "+v)
		}
		cfg.EventType = n
	}
	return cfg, nil
}
