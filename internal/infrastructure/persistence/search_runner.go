package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erp/revrec/internal/application/export"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Searches available for CSV export, keyed by search id
var searchQueries = map[string]string{
	export.SearchFulfillmentLines: `
SELECT f.number AS fulfillment, f.tran_date AS date, l.line_no AS line, l.product_id AS product,
       l.item_type AS item_type, l.quantity AS quantity, l.revenue_event_id AS revenue_event
FROM item_fulfillment_lines l
JOIN item_fulfillments f ON f.id = l.fulfillment_id
ORDER BY f.tran_date, f.number, l.line_no
LIMIT ?`,
	export.SearchRevenueEvents: `
SELECT source_key, transaction_line_id AS line, event_type, kind, quantity, amount,
       purpose, event_date AS date, cumulative_percent
FROM revenue_events
ORDER BY event_date, created_at
LIMIT ?`,
	export.SearchBlanketLines: `
SELECT b.number AS blanket_order, l.product_id AS product, l.remaining, l.pending_return,
       l.returned, l.refunded, l.sum_shipped
FROM blanket_order_lines l
JOIN blanket_orders b ON b.id = l.blanket_order_id
ORDER BY b.number, l.product_id
LIMIT ?`,
}

// SqlxSearchRunner runs the export searches over the gorm connection pool with sqlx
type SqlxSearchRunner struct {
	db *sqlx.DB
}

// NewSqlxSearchRunner wraps the pool behind db
func NewSqlxSearchRunner(db *gorm.DB) (*SqlxSearchRunner, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	driver := db.Dialector.Name()
	if driver == "sqlite" {
		driver = "sqlite3"
	}
	return &SqlxSearchRunner{db: sqlx.NewDb(sqlDB, driver)}, nil
}

// Searches returns the known search ids in name order
func (r *SqlxSearchRunner) Searches() []string {
	names := make([]string, 0, len(searchQueries))
	for name := range searchQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a search and returns its rows rendered as text
func (r *SqlxSearchRunner) Run(ctx context.Context, searchID string, limit int) (*export.Table, error) {
	query, ok := searchQueries[searchID]
	if !ok {
		return nil, shared.NewDomainError("UNKNOWN_SEARCH", "unknown search: "+searchID)
	}
	if limit <= 0 {
		limit = shared.DefaultFilter().Limit
	}

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", searchID, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	table := &export.Table{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", searchID, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, rows.Err()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format("2006-01-02")
	case float64:
		return decimal.NewFromFloat(val).String()
	default:
		return fmt.Sprint(val)
	}
}

// Ensure SqlxSearchRunner implements SearchRunner
var _ export.SearchRunner = (*SqlxSearchRunner)(nil)
