package config

import (
	"testing"
)

func TestLoad_MissingBaseURL(t *testing.T) {
	t.Setenv("MRP_BASE_URL", "")
	t.Setenv("MRP_API_TOKEN", "token")
	t.Setenv("MRP_ASSEMBLY_CATEGORY_ID", "5")

	_, err := Load()
	if err == nil {
		t.Fatal("expected a configuration error for missing base URL")
	}
}

func TestLoad_InvalidCategoryID(t *testing.T) {
	t.Setenv("MRP_BASE_URL", "https://inventory.example.com")
	t.Setenv("MRP_API_TOKEN", "token")
	t.Setenv("MRP_ASSEMBLY_CATEGORY_ID", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected a configuration error for a non-integer category id")
	}
}

// TestLoad_SucceedsWithoutCategoryID confirms compute's path through
// config.Load never requires MRP_ASSEMBLY_CATEGORY_ID: only
// list-assemblies reads it, and only that command should reject its
// absence (spec §6.1: "Missing URL or token aborts startup", the
// category merely bounds the out-of-scope selection UI).
func TestLoad_SucceedsWithoutCategoryID(t *testing.T) {
	t.Setenv("MRP_BASE_URL", "https://inventory.example.com")
	t.Setenv("MRP_API_TOKEN", "token")
	t.Setenv("MRP_ASSEMBLY_CATEGORY_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssemblyCategoryID != 0 {
		t.Errorf("AssemblyCategoryID = %d, want 0", cfg.AssemblyCategoryID)
	}
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("MRP_BASE_URL", "https://inventory.example.com")
	t.Setenv("MRP_API_TOKEN", "token")
	t.Setenv("MRP_ASSEMBLY_CATEGORY_ID", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://inventory.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.AssemblyCategoryID != 7 {
		t.Errorf("AssemblyCategoryID = %d, want 7", cfg.AssemblyCategoryID)
	}
}

