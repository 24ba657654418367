// Package platform implements the upload/download collaborators that
// move an encoded video to and from third-party video hosts. None of
// this is part of the codec: a Platform only ever moves opaque bytes
// around, and never inspects the metadata or fountain frames inside
// the file it is shipping.
package platform

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"rvs/util"
)

// Uploader ships a local video file to a remote host and returns an
// identifier the corresponding Downloader can use to retrieve it.
type Uploader interface {
	Upload(ctx context.Context, path string) (remoteID string, err error)
}

// Downloader retrieves a previously uploaded video file by ID and
// writes it to outputPath.
type Downloader interface {
	Download(ctx context.Context, remoteID, outputPath string) error
}

// httpClient is shared by every platform implementation; each request
// still gets its own context for cancellation and timeouts.
var httpClient = &http.Client{Timeout: 5 * time.Minute}

// doRequest issues method against url with the given body and
// headers, returning the response body.
func doRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// pollUntilReady calls check repeatedly, with delay between attempts,
// until it reports ready or the context is done.
func pollUntilReady(ctx context.Context, delay time.Duration, check func() (ready bool, err error)) error {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()
	for {
		ready, err := check()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// downloadToFile streams the body of a GET to url into a new file at
// outputPath.
func downloadToFile(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// bytesReader wraps a byte slice as an io.Reader for doRequest bodies.
func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// baseName strips any directory prefix from path.
func baseName(path string) string { return util.BaseName(path) }
