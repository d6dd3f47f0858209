package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/pipeline"
)

const rawCSV = `Order ID,Order Date,Customer Name,Segment,Country,State,City,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
CA-1,2024-01-03,Ann,Consumer,United States,Texas,Austin,Technology,Phones,Phone X,500,2,0,120
CA-2,2024-01-19,Bob,Corporate,United States,Ohio,Columbus,Furniture,Chairs,Chair Y,300,1,0.2,-40
CA-3,2024-02-07,Ann,Consumer,United States,Texas,Dallas,Office Supplies,Paper,Paper Z,20,5,0,6
CA-4,2024-03-11,Cid,Home Office,United States,California,Fresno,Technology,Phones,Phone X,250,1,0.1,50
`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, raw string) (*Server, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw", "superstore.csv")
	procPath := filepath.Join(dir, "processed", "superstore_clean.csv")
	if raw != "" {
		if err := os.MkdirAll(filepath.Dir(rawPath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(rawPath, []byte(raw), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	src := NewCacheSource(rawPath, procPath, pipeline.Options{})
	return New(src, dashboard.DefaultParams()), rawPath, procPath
}

func do(t *testing.T, s *Server, method, target string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: unmarshal: %v body=%s", method, target, err, w.Body.String())
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	s, _, procPath := setup(t, rawCSV)
	code, env := do(t, s, http.MethodGet, "/api/health")
	if code != http.StatusOK || env.Code != CodeOK {
		t.Fatalf("status %d env %+v", code, env)
	}
	var got runInfo
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("data: %v", err)
	}
	if got.Rows != 4 || got.Persist != "ok" || got.RunID == "" {
		t.Fatalf("health: %+v", got)
	}
	if _, err := os.Stat(procPath); err != nil {
		t.Fatalf("processed file not written: %v", err)
	}
}

func TestMissingSourceIs503(t *testing.T) {
	s, _, _ := setup(t, "")
	for _, path := range []string{"/api/health", "/api/overview", "/api/products"} {
		code, env := do(t, s, http.MethodGet, path)
		if code != http.StatusServiceUnavailable || env.Code != CodeUnavailable {
			t.Fatalf("%s: status %d env %+v", path, code, env)
		}
		if !strings.Contains(env.Message, "source file not found") {
			t.Fatalf("%s: message %q", path, env.Message)
		}
	}
}

func TestSchemaErrorIs503(t *testing.T) {
	s, _, _ := setup(t, "Sales,Profit\n1,2\n")
	code, env := do(t, s, http.MethodGet, "/api/sales")
	if code != http.StatusServiceUnavailable || !strings.Contains(env.Message, "order_date") {
		t.Fatalf("status %d env %+v", code, env)
	}
}

func TestOverviewWithFilters(t *testing.T) {
	s, _, _ := setup(t, rawCSV)
	code, env := do(t, s, http.MethodGet, "/api/overview?category=Technology&from=2024-01&to=2024-02")
	if code != http.StatusOK {
		t.Fatalf("status %d env %+v", code, env)
	}
	var v dashboard.OverviewView
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("data: %v", err)
	}
	if v.Rows != 1 || *v.KPIs[0].Value != 500 {
		t.Fatalf("overview: %+v", v)
	}
	if v.Trend.Available || v.Trend.Notice == "" {
		t.Fatalf("trend without gross sales should be unavailable: %+v", v.Trend)
	}
}

func TestBadParams(t *testing.T) {
	s, _, _ := setup(t, rawCSV)
	for _, target := range []string{
		"/api/overview?from=yesterday",
		"/api/sales?sales_min=abc",
		"/api/sales?sales_min=10&sales_max=1",
		"/api/pareto?top=-1",
		"/api/pareto?tiers=Z",
		"/api/cohort?normalize=maybe",
	} {
		code, env := do(t, s, http.MethodGet, target)
		if code != http.StatusBadRequest || env.Code != CodeBadRequest {
			t.Fatalf("%s: status %d env %+v", target, code, env)
		}
	}
}

func TestParetoAndCohort(t *testing.T) {
	s, _, _ := setup(t, rawCSV)
	_, env := do(t, s, http.MethodGet, "/api/pareto?top=1")
	var p dashboard.ParetoSection
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("pareto: %v", err)
	}
	if p.Products != 3 || len(p.Rows) != 1 || p.Rows[0].Key != "Phone X" {
		t.Fatalf("pareto: %+v", p)
	}

	_, env = do(t, s, http.MethodGet, "/api/cohort?normalize=false")
	var c dashboard.CohortSection
	if err := json.Unmarshal(env.Data, &c); err != nil {
		t.Fatalf("cohort: %v", err)
	}
	if !c.Available || c.Normalized || c.Cohorts[0] != "2024-01" || c.Values[0][0] != 2 {
		t.Fatalf("cohort: %+v", c)
	}
}

func TestViewsRespond(t *testing.T) {
	s, _, _ := setup(t, rawCSV)
	for _, path := range []string{"/api/filters", "/api/sales", "/api/customers", "/api/products", "/api/dictionary"} {
		code, env := do(t, s, http.MethodGet, path)
		if code != http.StatusOK || env.Code != CodeOK || len(env.Data) == 0 {
			t.Fatalf("%s: status %d env %+v", path, code, env)
		}
	}
}

func TestRebuild(t *testing.T) {
	s, rawPath, _ := setup(t, rawCSV)
	if _, env := do(t, s, http.MethodGet, "/api/health"); env.Code != CodeOK {
		t.Fatalf("health: %+v", env)
	}
	extra := "CA-5,2024-03-20,Dee,Consumer,Canada,Ontario,Toronto,Furniture,Tables,Table Q,80,1,0,8\n"
	if err := os.WriteFile(rawPath, []byte(rawCSV+extra), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	// memoized until rebuilt
	_, env := do(t, s, http.MethodGet, "/api/health")
	var before runInfo
	_ = json.Unmarshal(env.Data, &before)
	if before.Rows != 4 {
		t.Fatalf("memoized rows: %d", before.Rows)
	}
	code, env := do(t, s, http.MethodPost, "/api/rebuild")
	var after runInfo
	_ = json.Unmarshal(env.Data, &after)
	if code != http.StatusOK || after.Rows != 5 || after.RunID == before.RunID {
		t.Fatalf("rebuild: status %d %+v", code, after)
	}
}

func TestCacheSourceFallsBackToProcessed(t *testing.T) {
	s, rawPath, _ := setup(t, rawCSV)
	if _, env := do(t, s, http.MethodGet, "/api/health"); env.Code != CodeOK {
		t.Fatalf("health: %+v", env)
	}
	if err := os.Remove(rawPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	code, env := do(t, s, http.MethodPost, "/api/rebuild")
	var got runInfo
	_ = json.Unmarshal(env.Data, &got)
	if code != http.StatusOK || !got.Canonical || got.Rows != 4 {
		t.Fatalf("fallback: status %d %+v", code, got)
	}
}
