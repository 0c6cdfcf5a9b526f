package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crate/internal/fetch"
	"crate/internal/services"
)

func payload(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	return data
}

func serveContent(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "dump.xml.gz", time.Time{}, bytes.NewReader(data))
	}
}

func newFetcher(t *testing.T, opts fetch.Options) *fetch.Fetcher {
	t.Helper()
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = time.Millisecond
	}
	return fetch.New(opts)
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.Contains(name, ".part") || strings.HasSuffix(name, ".tmp") {
			t.Fatalf("leftover file %s", name)
		}
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name      string
		length    int64
		n         int
		wantCount int
		wantLast  int64
	}{
		{"even split", 80, 8, 8, 10},
		{"remainder absorbed by last", 103, 8, 8, 12 + 7},
		{"more segments than bytes", 3, 8, 3, 1},
		{"zero segments clamps to one", 10, 0, 1, 10},
		{"empty object", 0, 8, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges := fetch.Plan(tt.length, tt.n)
			if len(ranges) != tt.wantCount {
				t.Fatalf("got %d ranges, want %d", len(ranges), tt.wantCount)
			}
			if len(ranges) == 0 {
				return
			}
			var next int64
			for i, r := range ranges {
				if r.Index != i {
					t.Fatalf("range %d has index %d", i, r.Index)
				}
				if r.Start != next {
					t.Fatalf("range %d starts at %d, want %d", i, r.Start, next)
				}
				if r.Len() <= 0 {
					t.Fatalf("range %d is empty", i)
				}
				next = r.End + 1
			}
			if next != tt.length {
				t.Fatalf("ranges cover %d bytes, want %d", next, tt.length)
			}
			if last := ranges[len(ranges)-1].Len(); last != tt.wantLast {
				t.Fatalf("last range length = %d, want %d", last, tt.wantLast)
			}
		})
	}
}

func TestFetchAssemblesSegmentsInOrder(t *testing.T) {
	data := payload(10_007)
	server := httptest.NewServer(serveContent(data))
	defer server.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "dump.xml.gz")

	var mu sync.Mutex
	var last int64
	regressed := false
	fetcher := newFetcher(t, fetch.Options{
		Client:   server.Client(),
		Segments: 8,
		OnProgress: func(received, total int64) {
			mu.Lock()
			defer mu.Unlock()
			if received < last {
				regressed = true
			}
			last = received
			if total != int64(len(data)) {
				t.Errorf("total = %d, want %d", total, len(data))
			}
		},
	})

	result, err := fetcher.Fetch(context.Background(), server.URL+"/dump.xml.gz", target)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Skipped {
		t.Fatal("expected a real download")
	}
	if result.Segments != 8 || result.Bytes != int64(len(data)) {
		t.Fatalf("unexpected result %+v", result)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("assembled file does not match source")
	}
	if regressed {
		t.Fatal("progress went backwards without a failed attempt")
	}
	if last != int64(len(data)) {
		t.Fatalf("final progress = %d, want %d", last, len(data))
	}
	assertNoLeftovers(t, dir)
}

func TestFetchSkipsWhenSizeMatches(t *testing.T) {
	data := payload(512)
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		serveContent(data)(w, r)
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "dump.xml.gz")
	existing := bytes.Repeat([]byte{'x'}, len(data))
	if err := os.WriteFile(target, existing, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := newFetcher(t, fetch.Options{Client: server.Client()}).Fetch(context.Background(), server.URL, target)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected skip when sizes match")
	}
	if gets.Load() != 0 {
		t.Fatalf("expected no GET requests, got %d", gets.Load())
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, existing) {
		t.Fatal("existing file should be untouched")
	}
}

func TestFetchReplacesTruncatedTarget(t *testing.T) {
	data := payload(2048)
	server := httptest.NewServer(serveContent(data))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "dump.xml.gz")
	if err := os.WriteFile(target, data[:100], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := newFetcher(t, fetch.Options{Client: server.Client(), Segments: 4}).Fetch(context.Background(), server.URL, target); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, data) {
		t.Fatal("truncated target was not replaced")
	}
}

func TestFetchRetriesFailedSegment(t *testing.T) {
	data := payload(4000)
	var failures atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.Header.Get("Range"), "bytes=0-") && failures.Load() < 2 {
			failures.Add(1)
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		serveContent(data)(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "dump.xml.gz")
	fetcher := newFetcher(t, fetch.Options{Client: server.Client(), Segments: 4, Retries: 3})
	if _, err := fetcher.Fetch(context.Background(), server.URL, target); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if failures.Load() != 2 {
		t.Fatalf("expected two failed attempts, got %d", failures.Load())
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, data) {
		t.Fatal("assembled file does not match source after retry")
	}
	assertNoLeftovers(t, dir)
}

func TestFetchProgressNeverDecreasesAcrossRetries(t *testing.T) {
	data := payload(4000)
	var dropped atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.Header.Get("Range") == "bytes=0-999" && dropped.CompareAndSwap(false, true) {
			w.Header().Set("Content-Range", "bytes 0-999/4000")
			w.Header().Set("Content-Length", "1000")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(data[:600])
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			panic(http.ErrAbortHandler)
		}
		serveContent(data)(w, r)
	}))
	defer server.Close()

	var mu sync.Mutex
	var events []int64
	fetcher := newFetcher(t, fetch.Options{
		Client:   server.Client(),
		Segments: 4,
		Retries:  2,
		OnProgress: func(received, total int64) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, received)
		},
	})

	dir := t.TempDir()
	target := filepath.Join(dir, "dump.xml.gz")
	if _, err := fetcher.Fetch(context.Background(), server.URL, target); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !dropped.Load() {
		t.Fatal("expected the first segment attempt to be cut short")
	}

	var high int64
	for i, received := range events {
		if received < high {
			t.Fatalf("progress decreased at event %d: %d after %d", i, received, high)
		}
		high = received
	}
	if high != int64(len(data)) {
		t.Fatalf("final progress = %d, want %d", high, len(data))
	}
	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, data) {
		t.Fatal("assembled file does not match source after retry")
	}
	assertNoLeftovers(t, dir)
}

func TestFetchAbortsWhenSegmentExhaustsRetries(t *testing.T) {
	data := payload(4000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.Header.Get("Range"), "bytes=2000-") {
			http.Error(w, "broken", http.StatusInternalServerError)
			return
		}
		serveContent(data)(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "dump.xml.gz")
	_, err := newFetcher(t, fetch.Options{Client: server.Client(), Segments: 4, Retries: 1}).Fetch(context.Background(), server.URL, target)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatal("target must not exist after a failed download")
	}
	assertNoLeftovers(t, dir)
}

func TestFetchRejectsServerIgnoringRange(t *testing.T) {
	data := payload(1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newFetcher(t, fetch.Options{Client: server.Client(), Segments: 2, Retries: 2}).Fetch(context.Background(), server.URL, filepath.Join(dir, "dump.xml.gz"))
	if err == nil {
		t.Fatal("expected error when range requests are ignored")
	}
	assertNoLeftovers(t, dir)
}

func TestProbeRequiresContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if _, err := newFetcher(t, fetch.Options{Client: server.Client()}).Probe(context.Background(), server.URL); err == nil {
		t.Fatal("expected probe error without content length")
	}
}

func TestCounterConcurrentAdds(t *testing.T) {
	var counter fetch.Counter
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				counter.Add(1)
			}
		}()
	}
	wg.Wait()
	if counter.Load() != 8000 {
		t.Fatalf("counter = %d, want 8000", counter.Load())
	}
	if got := counter.Add(-500); got != 8000 {
		t.Fatalf("negative delta changed counter to %d", got)
	}
}
