package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"crate/internal/association"
	"crate/internal/logging"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least need bytes available.
func CheckFreeSpace(name, path string, need uint64) Result {
	available, err := FreeSpace(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free, %s needed", humanize.Bytes(available), humanize.Bytes(need))
	if available < need {
		return Result{Name: name, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// FreeSpace returns the bytes available to unprivileged users on path's filesystem.
func FreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckIndex verifies the barcode index has been built.
func CheckIndex(ctx context.Context, path string) Result {
	const name = "Barcode index"

	status := ProbeIndex(ctx, path)
	if status.Err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, status.Err)}
	}
	if !status.Exists {
		return Result{Name: name, Detail: "not built (run crate ingest or crate index sample)"}
	}
	if status.Rows == 0 {
		return Result{Name: name, Detail: "empty (run crate ingest)"}
	}
	return Result{Name: name, Passed: true, Detail: status.Detail()}
}

// CheckAssociations verifies the association document is readable.
func CheckAssociations(path string) Result {
	const name = "Association store"

	store, err := association.Open(path, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d associations", store.Count())}
}

// CheckDumpSource verifies the configured dump URL is reachable and sized.
func CheckDumpSource(ctx context.Context, url string) Result {
	const name = "Dump source"

	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, url, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK && resp.ContentLength > 0:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s)", humanize.Bytes(uint64(resp.ContentLength)))}
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Detail: "reachable but size unknown (segmented download needs Content-Length)"}
	case resp.StatusCode == http.StatusNotFound:
		return Result{Name: name, Detail: "dump not found (check dump.file_name)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (dump host unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (dump host unreachable)"
	}
	return err.Error()
}
