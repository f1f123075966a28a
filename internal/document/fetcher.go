package document

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent       = "spigell/cv-chat (spigelly@gmail.com)"
	contentEncoding = "gzip"
	defaultTimeout  = 30 * time.Second
	// Upper bound for a downloaded document body.
	maxDocumentSize = 32 << 20
)

// ErrTransport marks failures to retrieve the document: connection errors,
// timeouts and non-2xx responses.
var ErrTransport = errors.New("document transport error")

type Fetcher struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	// MaxBytes bounds the decoded body; larger documents are rejected.
	MaxBytes   int64
}

// NewFetcher returns a Fetcher whose requests never outlive timeout.
func NewFetcher(logger *zap.Logger, timeout time.Duration) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		MaxBytes:  maxDocumentSize,
	}
}

// Fetch downloads url and returns the raw body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	f.logger.Debug("make request", zap.String("url", url))

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: bad status: %s", ErrTransport, resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		defer gzipReader.Close()
		body = gzipReader
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxDocumentSize
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: document too large (over %d bytes)", ErrTransport, limit)
	}

	f.logger.Debug("got document", zap.String("url", url), zap.Int("bytes", len(data)))

	return data, nil
}
