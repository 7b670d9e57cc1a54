// Package fetcher retrieves benchmark drop files over HTTP and FTP and
// parses the CSV/XLSX formats the ops team delivers them in.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads a remote benchmark drop.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The
	// caller must close it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into a local file and returns the
	// number of bytes written.
	DownloadToFile(ctx context.Context, url, path string) (int64, error)
}
