package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const downloadAttempts = 3

// Overridable in tests.
var retryBackoff = 2 * time.Second

// Downloader fetches source videos over HTTP into local files.
type Downloader struct {
	client *http.Client
}

func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: 30 * time.Minute, // videos can be large
		},
	}
}

// Fetch downloads url into destPath, retrying transient failures a bounded
// number of times before surfacing a FetchError.
func (d *Downloader) Fetch(ctx context.Context, url, destPath string) error {
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &FetchError{URL: url, Err: ctx.Err()}
			case <-time.After(retryBackoff):
			}
		}

		lastErr = d.fetchOnce(ctx, url, destPath)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return &FetchError{URL: url, Err: lastErr}
}

func (d *Downloader) fetchOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("write file: %w", err)
	}
	return f.Close()
}
