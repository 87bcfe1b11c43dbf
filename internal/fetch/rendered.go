package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const defaultSettle = time.Second

// Rendered loads a page in a headless Chromium and captures the DOM after
// client-side rendering has settled.
type Rendered struct {
	bin       string
	stealth   bool
	settle    time.Duration
	userAgent string
}

// RenderedOption configures Rendered.
type RenderedOption func(*Rendered)

// WithBrowserBin uses a specific Chromium binary instead of the launcher's download.
func WithBrowserBin(path string) RenderedOption {
	return func(r *Rendered) { r.bin = path }
}

// WithStealth hides the usual headless fingerprints.
func WithStealth(on bool) RenderedOption {
	return func(r *Rendered) { r.stealth = on }
}

// WithSettle sets the pause between load and capture.
func WithSettle(d time.Duration) RenderedOption {
	return func(r *Rendered) {
		if d >= 0 {
			r.settle = d
		}
	}
}

func WithRenderUserAgent(ua string) RenderedOption {
	return func(r *Rendered) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// NewRendered creates a Rendered strategy.
func NewRendered(opts ...RenderedOption) *Rendered {
	r := &Rendered{settle: defaultSettle, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch launches a private browser process for this one page. The process is
// killed and its profile removed on every return path.
func (r *Rendered) Fetch(ctx context.Context, url string, rec Recorder) (string, error) {
	start := time.Now()
	log := loggerFrom(ctx, nil)

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Set("disable-setuid-sandbox").
		Leakless(true)
	if r.bin != "" {
		l = l.Bin(r.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		// Cleanup waits for a process exit that never comes when the start failed
		if l.PID() != 0 {
			l.Kill()
		}
		_ = os.RemoveAll(l.Get(flags.UserDataDir))
		return "", r.fail(url, "launch browser", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", r.fail(url, "connect browser", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			log.Debug("closing browser", "error", err)
		}
	}()

	var page *rod.Page
	if r.stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return "", r.fail(url, "open page", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}); err != nil {
		return "", r.fail(url, "set user agent", err)
	}
	if err := page.Navigate(url); err != nil {
		return "", r.fail(url, "navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", r.fail(url, "wait for load", err)
	}

	select {
	case <-ctx.Done():
		return "", &Error{Method: MethodScraping, URL: url, Err: classifyError(ctx.Err())}
	case <-time.After(r.settle):
	}

	content, err := page.HTML()
	if err != nil {
		return "", r.fail(url, "capture html", err)
	}

	elapsed := time.Since(start)
	rec.SetScrapingTime(elapsed)
	log.Info("page rendered", "url", url, "seconds", elapsed.Seconds())
	return content, nil
}

func (r *Rendered) fail(url, step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Method: MethodScraping, URL: url, Err: fmt.Errorf("%s: %w", step, classifyError(err))}
	}
	return &Error{Method: MethodScraping, URL: url, Err: fmt.Errorf("%w: %s: %w", ErrRender, step, err)}
}
