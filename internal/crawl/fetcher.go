package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

// maxProfileBytes bounds a profile page body
const maxProfileBytes = 8 << 20

// ProfileFetcher retrieves profile page HTML
type ProfileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcherOptions configures HTTPFetcher
type HTTPFetcherOptions struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

// HTTPFetcher fetches profiles over plain HTTP, independent of the browser session
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
}

// NewHTTPFetcher creates an HTTPFetcher with a per-request timeout
func NewHTTPFetcher(opts HTTPFetcherOptions) *HTTPFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lang := opts.AcceptLanguage
	if lang == "" {
		lang = "en-US,en;q=0.9"
	}
	return &HTTPFetcher{
		client:         &http.Client{Timeout: timeout},
		userAgent:      opts.UserAgent,
		acceptLanguage: lang,
	}
}

// Fetch GETs url and returns the body. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrProfileFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", apperrors.ErrProfileFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", apperrors.ErrProfileFetch, err)
	}
	return body, nil
}
