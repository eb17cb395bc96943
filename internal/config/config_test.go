package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Match.Tolerance != 1.0 {
		t.Errorf("got tolerance %g, want 1.0", cfg.Match.Tolerance)
	}
	if cfg.Match.AcceptResidual != 0.4 {
		t.Errorf("got accept_residual %g, want 0.4", cfg.Match.AcceptResidual)
	}
	if cfg.Scan.DPI != 300 {
		t.Errorf("got scan dpi %g, want 300", cfg.Scan.DPI)
	}
	if len(cfg.Match.Scales) == 0 || cfg.Match.Scales[0] != 500 {
		t.Errorf("got scales %v, want 1:500 first", cfg.Match.Scales)
	}
	if cfg.Match.SearchFactor != 1.0 {
		t.Errorf("got search_factor %g, want 1.0", cfg.Match.SearchFactor)
	}
	if cfg.Workers.Count <= 0 {
		t.Errorf("got %d workers", cfg.Workers.Count)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CADAREF_MATCH_TOLERANCE", "0.5")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Match.Tolerance != 0.5 {
		t.Errorf("got tolerance %g, want 0.5 from environment", cfg.Match.Tolerance)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	bad := *cfg
	bad.Match.Tolerance = 0
	if err := bad.Validate(); err == nil {
		t.Error("got nil error for zero tolerance")
	}

	bad = *cfg
	bad.Match.Penalty = 0.1
	if err := bad.Validate(); err == nil {
		t.Error("got nil error for penalty below tolerance")
	}

	bad = *cfg
	bad.Paths.Workdir = ""
	if err := bad.Validate(); err == nil {
		t.Error("got nil error for empty workdir")
	}

	bad = *cfg
	bad.Match.SearchFactor = 0
	if err := bad.Validate(); err == nil {
		t.Error("got nil error for zero search factor")
	}

	bad = *cfg
	bad.Workers.Count = 0
	if err := bad.Validate(); err == nil {
		t.Error("got nil error for zero workers")
	}
}
