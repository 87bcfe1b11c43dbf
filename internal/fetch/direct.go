package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

// Direct fetches a page with a plain HTTP GET.
type Direct struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// DirectOption configures Direct.
type DirectOption func(*Direct)

func WithHTTPClient(c *http.Client) DirectOption {
	return func(d *Direct) { d.client = c }
}

func WithUserAgent(ua string) DirectOption {
	return func(d *Direct) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

func WithMaxBodyBytes(n int64) DirectOption {
	return func(d *Direct) {
		if n > 0 {
			d.maxBodyBytes = n
		}
	}
}

// NewDirect creates a Direct strategy.
func NewDirect(opts ...DirectOption) *Direct {
	d := &Direct{
		client:       &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch GETs url and returns the body decoded to UTF-8 using the declared
// charset. Any non-2xx status fails with the status code attached.
func (d *Direct) Fetch(ctx context.Context, url string, _ Recorder) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Method: MethodRESTGet, URL: url, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &Error{Method: MethodRESTGet, URL: url, Err: classifyError(err)}
	}
	defer resp.Body.Close()
	log := loggerFrom(ctx, nil)
	log.Info("page fetched", "url", url, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Method: MethodRESTGet, URL: url, StatusCode: resp.StatusCode, Err: ErrBadStatus}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodyBytes+1))
	if err != nil {
		return "", &Error{Method: MethodRESTGet, URL: url, Err: classifyError(err)}
	}
	if int64(len(raw)) > d.maxBodyBytes {
		log.Warn("page body over limit", "url", url, "limit_bytes", d.maxBodyBytes)
		return "", &Error{Method: MethodRESTGet, URL: url, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, d.maxBodyBytes)}
	}

	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{Method: MethodRESTGet, URL: url, Err: fmt.Errorf("decoding body: %w", err)}
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", &Error{Method: MethodRESTGet, URL: url, Err: fmt.Errorf("decoding body: %w", err)}
	}
	return string(b), nil
}
