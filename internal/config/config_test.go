package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerAddr != ":8080" || c.ParetoTopN != 30 || c.TopN != 20 || !c.CohortNormalize {
		t.Fatalf("defaults: %+v", c)
	}
	if c.RawPath != filepath.Join("data", "raw", "superstore.csv") {
		t.Fatalf("raw path: %s", c.RawPath)
	}
	if c.ProcessedPath != filepath.Join("data", "processed", "superstore_clean.csv") {
		t.Fatalf("processed path: %s", c.ProcessedPath)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &Global{
		DataDir:         "/srv/sales",
		Delimiter:       ";",
		ServerAddr:      "127.0.0.1:9000",
		LogLevel:        "debug",
		LogFormat:       "json",
		ParetoTopN:      10,
		CohortNormalize: false,
		TopN:            5,
	}
	if err := Save(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.ServerAddr != in.ServerAddr || out.ParetoTopN != 10 || out.CohortNormalize || out.LogFormat != "json" {
		t.Fatalf("round trip: %+v", out)
	}
	if out.RawPath != filepath.Join("/srv/sales", "raw", "superstore.csv") {
		t.Fatalf("raw path derived from data_dir: %s", out.RawPath)
	}
	if r, err := out.DelimiterRune(); err != nil || r != ';' {
		t.Fatalf("delimiter: %q %v", r, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SALESBOARD_SERVER_ADDR", ":9999")
	t.Setenv("SALESBOARD_TOP_N", "7")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerAddr != ":9999" || c.TopN != 7 {
		t.Fatalf("env override: %+v", c)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_addr: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestDelimiterRune(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", 0, false},
		{"tab", '\t', false},
		{"|", '|', false},
		{"::", 0, true},
	}
	for _, tt := range tests {
		got, err := (&Global{Delimiter: tt.in}).DelimiterRune()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("DelimiterRune(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestDefaultsMatchLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := Defaults(); *got != *want {
		t.Fatalf("Defaults() = %+v, Load = %+v", *want, *got)
	}
}
