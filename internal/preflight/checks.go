package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const embyProbeTimeout = 5 * time.Second

// CheckEmby calls /System/Info with the API key to confirm the server is
// reachable and the key is accepted.
func CheckEmby(ctx context.Context, baseURL, apiKey string) Result {
	result := Result{Name: "Emby"}

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	switch {
	case base == "":
		result.Detail = "missing url"
		return result
	case apiKey == "":
		result.Detail = "missing api key"
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, embyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, base+"/System/Info", nil)
	if err != nil {
		result.Detail = fmt.Sprintf("bad url (%v)", err)
		return result
	}
	req.Header.Set("X-Emby-Token", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := (&http.Client{Timeout: embyProbeTimeout}).Do(req)
	if err != nil {
		result.Detail = fmt.Sprintf("unreachable (%v)", err)
		return result
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		result.Passed = true
		result.Detail = "reachable"
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		result.Detail = "rejected (invalid api key)"
	default:
		result.Detail = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return result
}

// CheckDirectoryAccess requires path to be an existing directory the process
// can list, create files in, and traverse.
func CheckDirectoryAccess(name, path string) Result {
	if problem := directoryProblem(path); problem != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", path, problem)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableTarget requires that the file at path can be created: its
// nearest existing ancestor directory must be writable. Used for outputs whose
// parent directories are created on demand.
func CheckWritableTarget(name, path string) Result {
	dir := filepath.Dir(path)
	for {
		_, err := os.Stat(dir)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (stat: %v)", dir, err)}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if problem := directoryProblem(dir); problem != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", path, problem)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

func directoryProblem(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "does not exist"
	case err != nil:
		return fmt.Sprintf("stat: %v", err)
	case !info.IsDir():
		return "is not a directory"
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Sprintf("insufficient permissions: %v", err)
	}
	return ""
}
