// Package export stores search results as dated CSV files and reads them back.
package export

import (
	"context"
	"strings"
	"time"

	"github.com/erp/revrec/internal/application/batch"
)

// Job names
const (
	JobStoreCSV    = "store_csv"
	JobRecreateCSV = "recreate_csv"
)

// Parameter names
const (
	ParamFolder    = "folder"
	ParamSearchIDs = "search_ids"
)

// Searches that can be exported
const (
	SearchFulfillmentLines = "fulfillment_lines"
	SearchRevenueEvents    = "revenue_events"
	SearchBlanketLines     = "blanket_lines"
)

// RecreateFileName is the file RecreateCSVJob reads, prefixed with the run date
const RecreateFileName = "csv1"

// fileDateLayout is the YYYYMMDD prefix of every stored file
const fileDateLayout = "20060102"

// Table is a search result rendered as text
type Table struct {
	Columns []string
	Rows    [][]string
}

// SearchRunner executes named searches
type SearchRunner interface {
	Run(ctx context.Context, searchID string, limit int) (*Table, error)
	Searches() []string
}

// FileStore keeps exported files. Get returns shared.ErrNotFound for a missing key.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// SearchRef is one search to export and the name its file is stored under
type SearchRef struct {
	ID   string
	Name string
}

// ParseSearchRefs parses "id" or "id:name" entries separated by commas.
// An entry without a name is stored under its id.
func ParseSearchRefs(s string) []SearchRef {
	var refs []SearchRef
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !found || name == "" {
			name = id
		}
		refs = append(refs, SearchRef{ID: id, Name: name})
	}
	return refs
}

// FileKey builds folder/YYYYMMDD_name.csv
func FileKey(folder string, on time.Time, name string) string {
	file := on.Format(fileDateLayout) + "_" + name + ".csv"
	folder = strings.TrimSuffix(folder, "/")
	if folder == "" {
		return file
	}
	return folder + "/" + file
}

// Settings are the configured defaults of the CSV jobs
type Settings struct {
	Folder    string
	SearchIDs []string
	// Limit bounds the rows of one search. Zero uses the runner default.
	Limit int
}

// Register adds the CSV jobs to the catalog. Submission parameters override Settings.
func Register(catalog *batch.Catalog, searches SearchRunner, files FileStore, s Settings) {
	catalog.Register(JobStoreCSV, func(p batch.Params) (batch.Runnable, error) {
		return NewStoreCSVJob(searches, files, merge(s, p)).WithLimit(s.Limit), nil
	})
	catalog.Register(JobRecreateCSV, func(p batch.Params) (batch.Runnable, error) {
		return NewRecreateCSVJob(files, merge(s, p)), nil
	})
}

func merge(s Settings, p batch.Params) batch.Params {
	merged := batch.Params{}
	if s.Folder != "" {
		merged[ParamFolder] = s.Folder
	}
	if len(s.SearchIDs) > 0 {
		merged[ParamSearchIDs] = strings.Join(s.SearchIDs, ",")
	}
	for k, v := range p {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}
