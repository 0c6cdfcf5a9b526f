package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crate/internal/ingest"
	"crate/internal/logging"
	"crate/internal/services"
	"crate/internal/testsupport"
)

const dumpName = "discogs_test_releases.xml.gz"

func dumpBytes(t *testing.T, elements ...string) []byte {
	t.Helper()
	path := testsupport.WriteDump(t, filepath.Join(t.TempDir(), dumpName), elements...)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	return data
}

func serveDump(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, dumpName, time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunDownloadsAndBuildsIndex(t *testing.T) {
	jagged := testsupport.Release{ID: 2345678, Title: "Jagged Little Pill", Artists: []string{"Alanis Morissette"}, Released: "1995-06-13", Barcodes: []string{"075678235320"}}
	data := dumpBytes(t,
		testsupport.Unplugged().XML(),
		`<release id="abc" status="Accepted"><title>Broken</title></release>`,
		jagged.XML(),
	)
	srv := serveDump(t, data)
	cfg := testsupport.NewConfig(t, testsupport.WithDumpSource(srv.URL, dumpName), testsupport.WithCommitEvery(1))

	var lastFraction float64
	p := ingest.New(cfg, ingest.Options{
		Logger:  logging.NewNop(),
		OnBuild: func(fraction float64, _ int64) { lastFraction = fraction },
	})
	report, err := p.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}
	if report.Releases != 2 || report.Malformed != 1 || report.Rows != 2 || report.Barcodes != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if lastFraction <= 0 || lastFraction > 1 {
		t.Fatalf("unexpected progress fraction %v", lastFraction)
	}

	store := testsupport.MustOpenIndex(t, cfg)
	entry, ok, err := store.Lookup(context.Background(), "075596082921")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if entry.Artist != "Eric Clapton" || entry.Title != "Unplugged" || entry.Year == nil || *entry.Year != 1992 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	info, ok, err := store.LastRebuild(context.Background())
	if err != nil || !ok {
		t.Fatalf("last rebuild: ok=%v err=%v", ok, err)
	}
	if info.RunID != report.RunID || info.Rows != 2 {
		t.Fatalf("unexpected rebuild info %+v", info)
	}
}

func TestDownloadSkipsCompleteDump(t *testing.T) {
	data := dumpBytes(t, testsupport.Unplugged().XML())
	srv := serveDump(t, data)
	cfg := testsupport.NewConfig(t, testsupport.WithDumpSource(srv.URL, dumpName))
	p := ingest.New(cfg, ingest.Options{Logger: logging.NewNop()})

	first, err := p.Download(context.Background())
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if first.Skipped || first.Bytes != int64(len(data)) {
		t.Fatalf("unexpected first result %+v", first)
	}
	second, err := p.Download(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Skipped {
		t.Fatal("expected second download to be skipped")
	}
}

func TestBuildRequiresDump(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := ingest.New(cfg, ingest.Options{Logger: logging.NewNop()})

	_, err := p.Build(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildTwiceIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteReleases(t, cfg.DumpPath(), testsupport.Unplugged())
	p := ingest.New(cfg, ingest.Options{Logger: logging.NewNop()})

	first, err := p.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.RunID == second.RunID {
		t.Fatal("each build needs its own run id")
	}
	store := testsupport.MustOpenIndex(t, cfg)
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after two builds, got %d", count)
	}
}
