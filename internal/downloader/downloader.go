package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"percy-figma/internal/logger"
	"percy-figma/internal/scratch"
)

// Namer maps a node id and its position in the configured id list to a file name.
type Namer func(id string, index int) string

// ByID names files <id>.png.
func ByID(id string, _ int) string {
	return id + ".png"
}

// ByName names files after names[index], falling back to the id when the
// index has no matching name.
func ByName(names []string) Namer {
	return func(id string, index int) string {
		if index >= 0 && index < len(names) {
			return names[index] + ".png"
		}
		return ByID(id, index)
	}
}

// Outcome is the terminal result of one download. Err is nil on success.
type Outcome struct {
	ID    string
	File  string
	Bytes int64
	Err   error
}

// OK reports whether the item was written to disk.
func (o Outcome) OK() bool { return o.Err == nil }

// DownloadItemError describes why a single image could not be downloaded.
// StatusCode is zero when no response was received.
type DownloadItemError struct {
	ID         string
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadItemError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download %s (%s): HTTP status %d", e.ID, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to download %s (%s): %v", e.ID, e.URL, e.Err)
}

func (e *DownloadItemError) Unwrap() error { return e.Err }

// Downloader fetches rendered images into a directory.
type Downloader struct {
	httpClient *http.Client
}

// New returns a Downloader using hc, or http.DefaultClient when hc is nil.
func New(hc *http.Client) *Downloader {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Downloader{httpClient: hc}
}

type item struct {
	id    string
	url   string
	index int
}

// DownloadAll downloads every URL in urls into dir concurrently and returns
// once all of them have finished. ids gives the configured order, which
// drives both the namer's index and the order of the returned outcomes.
// Per-item failures are recorded in the outcomes and never stop siblings;
// the returned error is only set when dir cannot be created.
func (d *Downloader) DownloadAll(ctx context.Context, ids []string, urls map[string]string, dir string, namer Namer) ([]Outcome, error) {
	if namer == nil {
		namer = ByID
	}
	if err := scratch.Ensure(dir); err != nil {
		return nil, err
	}

	items := plan(ids, urls)
	logger.Debug("[DEBUG] Starting DownloadAll with %d images into %s\n", len(items), dir)

	outcomes := make([]Outcome, len(items))
	var wg sync.WaitGroup

	// Names are claimed up front so two items never write the same file.
	claimedBy := make(map[string]string, len(items))

	for i, it := range items {
		name := namer(it.id, it.index)
		var nameErr error
		if strings.ContainsAny(name, `/\`) {
			nameErr = fmt.Errorf("file name %q contains a path separator", name)
		} else if owner, taken := claimedBy[name]; taken {
			nameErr = fmt.Errorf("file name %q is already used by %s", name, owner)
		} else {
			claimedBy[name] = it.id
		}

		wg.Add(1)
		go func(slot int, it item, name string, nameErr error) {
			defer wg.Done()

			path := filepath.Join(dir, name)
			out := Outcome{ID: it.id, File: path}

			if nameErr != nil {
				out.Err = &DownloadItemError{ID: it.id, URL: it.url, Err: nameErr}
			} else {
				out.Bytes, out.Err = d.downloadFile(ctx, it, path)
			}

			if out.Err != nil {
				logger.Error("[ERROR] Error downloading %s: %v, please check if the id is correct\n", name, out.Err)
			} else {
				logger.Info("[INFO] Downloaded %s\n", name)
			}
			// Each goroutine owns its own slot, no lock needed.
			outcomes[slot] = out
		}(i, it, name, nameErr)
	}

	wg.Wait() // Wait for all downloads to reach a terminal state

	logger.Debug("[DEBUG] Finished DownloadAll\n")
	return outcomes, nil
}

// plan orders the resolved URLs by configured id position. URLs for ids that
// were not configured (Figma may normalise ids) go last with index -1.
func plan(ids []string, urls map[string]string) []item {
	items := make([]item, 0, len(urls))
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := urls[id]; ok {
			items = append(items, item{id: id, url: u, index: i})
		}
	}

	var extra []string
	for id := range urls {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		items = append(items, item{id: id, url: urls[id], index: -1})
	}
	return items
}

// downloadFile streams url into destPath and returns the bytes written.
// A partially written file is removed on failure.
func (d *Downloader) downloadFile(ctx context.Context, it item, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, it.url, nil)
	if err != nil {
		return 0, &DownloadItemError{ID: it.id, URL: it.url, Err: err}
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, &DownloadItemError{ID: it.id, URL: it.url, Err: err}
	}
	// Ensure the response body stream is closed when the function returns
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Error("[ERROR] Failed to close response body: %s\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadItemError{ID: it.id, URL: it.url, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, &DownloadItemError{ID: it.id, URL: it.url, Err: fmt.Errorf("failed to create file %s: %w", destPath, err)}
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(destPath); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn("[WARN] Failed to remove partial file %s: %v\n", destPath, rerr)
		}
		return 0, &DownloadItemError{ID: it.id, URL: it.url, Err: fmt.Errorf("failed to write response to file: %w", err)}
	}

	logger.Debug("[DEBUG] Wrote %d bytes to %s\n", n, destPath)
	return n, nil
}
