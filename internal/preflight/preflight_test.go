package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crate/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass for 1 byte, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure for an impossible requirement")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckIndex_NotBuilt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	result := CheckIndex(context.Background(), path)
	if result.Passed {
		t.Fatal("expected failure for missing index")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("probing must not create the index")
	}
}

func TestCheckIndex_Seeded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.SeedIndex(t, cfg)
	store.Close()

	result := CheckIndex(context.Background(), cfg.Paths.IndexPath)
	if !result.Passed || !strings.HasPrefix(result.Detail, "5 barcodes") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckAssociations_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barcode_database.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckAssociations(path); result.Passed {
		t.Fatal("expected failure for corrupt store")
	}
}

func TestCheckDumpSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dump.xml.gz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", "2048")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckDumpSource(context.Background(), srv.URL+"/dump.xml.gz"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckDumpSource(context.Background(), srv.URL+"/missing.xml.gz"); result.Passed {
		t.Fatal("expected failure for missing dump")
	}
	if result := CheckDumpSource(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_Directories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedIndex(t, cfg)

	results := RunAll(context.Background(), cfg)
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for _, r := range results {
		if strings.HasSuffix(r.Name, "directory") && !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	for _, r := range Failed(results) {
		if r.Name != "Dump free space" {
			t.Errorf("unexpected failure %q: %s", r.Name, r.Detail)
		}
	}
}
