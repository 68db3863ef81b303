package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type usageRow struct {
	eventType string
	provider  string
	events    int64
}

type usageSQL struct {
	rows     []usageRow
	lastArgs []any
}

func (s *usageSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *usageSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *usageSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.lastArgs = args
	return &usageRows{rows: s.rows, idx: -1}, nil
}

type usageRows struct {
	rows []usageRow
	idx  int
}

func (r *usageRows) Close()                                       {}
func (r *usageRows) Err() error                                   { return nil }
func (r *usageRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *usageRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *usageRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}
func (r *usageRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	*dest[0].(*string) = row.eventType
	*dest[1].(*string) = row.provider
	*dest[2].(*int64) = row.events
	return nil
}
func (r *usageRows) Values() ([]any, error) { return nil, nil }
func (r *usageRows) RawValues() [][]byte    { return nil }
func (r *usageRows) Conn() *pgx.Conn        { return nil }

func TestUsageSummary(t *testing.T) {
	app := testApp(t)
	sql := &usageSQL{rows: []usageRow{
		{eventType: "refine", provider: "claude", events: 12},
		{eventType: "suggest", provider: "static", events: 3},
	}}
	app.SQL = sql

	req := httptest.NewRequest("GET", "/v1/usage?days=7", nil)
	rr := httptest.NewRecorder()

	app.UsageSummary(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(sql.lastArgs) != 1 || sql.lastArgs[0] != 7 {
		t.Fatalf("query args = %v", sql.lastArgs)
	}
	var payload struct {
		Days   int              `json:"days"`
		Events []map[string]any `json:"events"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Days != 7 {
		t.Fatalf("days = %d", payload.Days)
	}
	if len(payload.Events) != 2 {
		t.Fatalf("events = %d", len(payload.Events))
	}
	if payload.Events[0]["events"] != float64(12) {
		t.Fatalf("events[0] = %v", payload.Events[0])
	}
}

func TestUsageSummaryIgnoresBadDays(t *testing.T) {
	app := testApp(t)
	sql := &usageSQL{}
	app.SQL = sql

	req := httptest.NewRequest("GET", "/v1/usage?days=-4", nil)
	rr := httptest.NewRecorder()

	app.UsageSummary(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(sql.lastArgs) != 1 || sql.lastArgs[0] != 30 {
		t.Fatalf("query args = %v", sql.lastArgs)
	}
}
