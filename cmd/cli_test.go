package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesboard/internal/dashboard"
)

const rawCSV = `Order ID,Order Date,Customer Name,Segment,Country,State,City,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
CA-1,2024-01-03,Ann,Consumer,United States,Texas,Austin,Technology,Phones,Phone X,500,2,0,120
CA-2,2024-01-19,Bob,Corporate,United States,Ohio,Columbus,Furniture,Chairs,Chair Y,300,1,0.2,-40
CA-3,2024-02-07,Ann,Consumer,United States,Texas,Dallas,Office Supplies,Paper,Paper Z,20,5,0,6
CA-4,2024-03-11,Cid,Home Office,United States,California,Fresno,Technology,Phones,Phone X,250,1,0.1,50
`

// resetFlags clears values and Changed state left over from a previous
// Execute, since cobra commands are package singletons.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it wrote to its
// output stream.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// setupHome isolates HOME, initializes a data directory and drops the raw
// export into it.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)

	dataDir := filepath.Join(home, "data")
	runCmd(t, "init", dataDir)
	if err := os.WriteFile(filepath.Join(dataDir, "raw", "superstore.csv"), []byte(rawCSV), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	return home
}

func TestCLI_InitWritesConfig(t *testing.T) {
	home := setupHome(t)
	for _, dir := range []string{"raw", "processed"} {
		if fi, err := os.Stat(filepath.Join(home, "data", dir)); err != nil || !fi.IsDir() {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	b, err := os.ReadFile(filepath.Join(home, ".salesboard", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), filepath.Join(home, "data", "raw", "superstore.csv")) {
		t.Fatalf("config missing raw path:\n%s", b)
	}

	if _, err := execute("init", filepath.Join(home, "data")); err == nil {
		t.Fatalf("expected init to refuse an existing config")
	}
	runCmd(t, "init", "--force", filepath.Join(home, "other"))
	if _, err := os.Stat(filepath.Join(home, "other", "raw")); err != nil {
		t.Fatalf("forced init: %v", err)
	}
}

func TestCLI_PrepareAndReport(t *testing.T) {
	home := setupHome(t)
	runCmd(t, "prepare")
	processed := filepath.Join(home, "data", "processed", "superstore_clean.csv")
	b, err := os.ReadFile(processed)
	if err != nil {
		t.Fatalf("processed file: %v", err)
	}
	if lines := strings.Count(string(b), "\n"); lines != 5 {
		t.Fatalf("processed lines = %d, want 5", lines)
	}

	out := runCmd(t, "report", "overview")
	for _, want := range []string{"[OVERVIEW]", "Rows: 4", "1,070.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("overview missing %q:\n%s", want, out)
		}
	}

	out = runCmd(t, "report", "overview", "--json", "--category", "Technology")
	var v dashboard.OverviewView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if v.Rows != 2 || *v.KPIs[0].Value != 750 {
		t.Fatalf("filtered overview: %+v", v)
	}

	// flags from the previous run must not leak
	out = runCmd(t, "report", "overview")
	if !strings.Contains(out, "Rows: 4") {
		t.Fatalf("filter leaked into next run:\n%s", out)
	}

	outFile := filepath.Join(home, "reports", "sales.md")
	runCmd(t, "report", "sales", "-o", outFile)
	if b, err := os.ReadFile(outFile); err != nil || !strings.Contains(string(b), "[SALES]") {
		t.Fatalf("report file: %v\n%s", err, b)
	}
}

func TestCLI_ParetoAndCohort(t *testing.T) {
	setupHome(t)
	out := runCmd(t, "pareto", "--top", "1")
	if !strings.Contains(out, "[PARETO ABC]") || !strings.Contains(out, "Phone X") || strings.Contains(out, "Chair Y") {
		t.Fatalf("pareto:\n%s", out)
	}
	out = runCmd(t, "cohort", "--counts")
	if !strings.Contains(out, "[CUSTOMER COHORTS]") || !strings.Contains(out, "values: customers") {
		t.Fatalf("cohort:\n%s", out)
	}
}

func TestCLI_Columns(t *testing.T) {
	setupHome(t)
	out := runCmd(t, "columns", "--sample-rows", "1")
	for _, want := range []string{"order_date", "month_year", "sales"} {
		if !strings.Contains(out, want) {
			t.Fatalf("columns missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_Export(t *testing.T) {
	home := setupHome(t)
	xlsx := filepath.Join(home, "out", "board.xlsx")
	csvPath := filepath.Join(home, "out", "filtered.csv")
	runCmd(t, "export", "--xlsx", xlsx, "--csv", csvPath, "--from", "2024-02")

	b, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if lines := strings.Count(string(b), "\n"); lines != 3 {
		t.Fatalf("filtered csv lines = %d, want 3:\n%s", lines, b)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Data")
	if err != nil {
		t.Fatalf("data sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("data rows = %d, want 3", len(rows))
	}

	if _, err := execute("export"); err == nil {
		t.Fatalf("expected error without --xlsx or --csv")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setupHome(t)
	runCmd(t, "config", "set", "top_n", "7")
	runCmd(t, "config", "set", "log_format", "JSON")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 7") || !strings.Contains(out, "log_format: json") {
		t.Fatalf("config show:\n%s", out)
	}
	for _, args := range [][]string{
		{"config", "set", "top_n", "abc"},
		{"config", "set", "delimiter", "#"},
		{"config", "set", "colour", "red"},
	} {
		if _, err := execute(args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestCLI_Errors(t *testing.T) {
	setupHome(t)
	for _, args := range [][]string{
		{"report", "weather"},
		{"report", "sales", "--sales-min", "lots"},
		{"report", "sales", "--from", "yesterday"},
		{"pareto", "--tiers", "Z"},
		{"pareto", "--top", "-2"},
	} {
		if _, err := execute(args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestCLI_MissingRawFile(t *testing.T) {
	home := setupHome(t)
	if err := os.Remove(filepath.Join(home, "data", "raw", "superstore.csv")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, err := execute("prepare")
	if err == nil || !strings.Contains(err.Error(), "source file not found") {
		t.Fatalf("expected source error, got %v", err)
	}
}
