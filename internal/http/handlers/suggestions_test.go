package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"promptstudio/internal/infra"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/templates"
)

func discardLogger() *infra.Logger {
	l := infra.Logger(zerolog.New(io.Discard))
	return &l
}

func testApp(t *testing.T) *App {
	t.Helper()
	registry, err := templates.Load("")
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	static := advisor.NewStaticAdvisor(registry)
	suggester, err := advisor.NewSuggester(advisor.SuggesterOptions{
		Advisor:   static,
		Provider:  "static",
		Registry:  registry,
		BatchSize: 5,
	})
	if err != nil {
		t.Fatalf("new suggester: %v", err)
	}
	return &App{
		Logger:    discardLogger(),
		Advisor:   static,
		Suggester: suggester,
		Registry:  registry,
	}
}

func TestSuggestReturnsItems(t *testing.T) {
	app := testApp(t)
	body := `{"target_model":"seedream","count":4,"spec":{"subject":"a mountain cabin"}}`
	req := httptest.NewRequest("POST", "/v1/suggestions", strings.NewReader(body))
	rr := httptest.NewRecorder()

	app.Suggest(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		RunID     string `json:"run_id"`
		Requested int    `json:"requested"`
		Collected int    `json:"collected"`
		Items     []struct {
			Text string `json:"text"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Requested != 4 {
		t.Fatalf("requested = %d", payload.Requested)
	}
	if payload.Collected == 0 || len(payload.Items) != payload.Collected {
		t.Fatalf("collected = %d, items = %d", payload.Collected, len(payload.Items))
	}
	if payload.RunID == "" {
		t.Fatal("run_id missing")
	}
}

func TestSuggestRequiresSubject(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("POST", "/v1/suggestions", strings.NewReader(`{"count":3,"spec":{}}`))
	rr := httptest.NewRecorder()

	app.Suggest(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSuggestRejectsBadJSON(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("POST", "/v1/suggestions", strings.NewReader(`{`))
	rr := httptest.NewRecorder()

	app.Suggest(rr, req)

	if rr.Code != 400 {
		t.Fatalf("status = %d", rr.Code)
	}
}

type suggestionRunRow struct {
	id           string
	targetModel  string
	provider     string
	requested    int
	collected    int
	attempts     int
	fallbackUsed bool
	createdAt    time.Time
}

type runListSQL struct {
	rows []suggestionRunRow
}

func (s *runListSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *runListSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *runListSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return &runRows{rows: s.rows, idx: -1}, nil
}

type runRows struct {
	rows []suggestionRunRow
	idx  int
}

func (r *runRows) Close()                                       {}
func (r *runRows) Err() error                                   { return nil }
func (r *runRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *runRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *runRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}
func (r *runRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	*dest[0].(*string) = row.id
	*dest[1].(*string) = row.targetModel
	*dest[2].(*string) = row.provider
	*dest[3].(*int) = row.requested
	*dest[4].(*int) = row.collected
	*dest[5].(*int) = row.attempts
	*dest[6].(*bool) = row.fallbackUsed
	*dest[7].(*time.Time) = row.createdAt
	return nil
}
func (r *runRows) Values() ([]any, error) { return nil, nil }
func (r *runRows) RawValues() [][]byte    { return nil }
func (r *runRows) Conn() *pgx.Conn        { return nil }

func TestSuggestionRuns(t *testing.T) {
	app := testApp(t)
	app.SQL = &runListSQL{rows: []suggestionRunRow{{
		id:          "run-1",
		targetModel: "seedream",
		provider:    "claude",
		requested:   10,
		collected:   7,
		attempts:    4,
		createdAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}}}

	req := httptest.NewRequest("GET", "/v1/suggestions/runs", nil)
	rr := httptest.NewRecorder()

	app.SuggestionRuns(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status = %d", rr.Code)
	}
	var payload struct {
		Runs []map[string]any `json:"runs"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Runs) != 1 {
		t.Fatalf("runs = %d", len(payload.Runs))
	}
	if payload.Runs[0]["collected"] != float64(7) {
		t.Fatalf("collected = %v", payload.Runs[0]["collected"])
	}
}
