// Package fetcher retrieves pages over plain HTTP or through Chrome and
// converts them to the requested output format.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

// Mode selects how a page is retrieved
type Mode string

const (
	ModePlain    Mode = "plain"
	ModeHead     Mode = "head"
	ModeHeadless Mode = "headless"
	ModeExternal Mode = "external"
)

// ParseMode accepts the short names and the long plain_request/browser_* forms
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "plain_request":
		return ModePlain, nil
	case "head", "browser_head":
		return ModeHead, nil
	case "headless", "browser_headless":
		return ModeHeadless, nil
	case "external", "browser_head_external":
		return ModeExternal, nil
	}
	return "", fmt.Errorf("unknown fetch mode %q", s)
}

const (
	defaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout      = 30 * time.Second
	maxPageSize         = 10 << 20
	browserExtraTimeout = 15 * time.Second
)

// Options configures a Fetcher
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// Proxy applies to plain requests and to browsers launched by the fetcher
	Proxy      string
	ChromePath string // empty = auto-detect
	// RemoteURL is the DevTools websocket of an externally managed browser
	RemoteURL string
}

// DefaultOptions returns sensible defaults
func DefaultOptions() Options {
	return Options{
		UserAgent: defaultUserAgent,
		Timeout:   defaultTimeout,
	}
}

// StatusError reports a non-2xx page response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}

// Fetcher retrieves pages. It is safe for concurrent use.
type Fetcher struct {
	opts       Options
	httpClient *http.Client
}

// New creates a Fetcher, filling unset options with defaults
func New(opts Options) (*Fetcher, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Fetcher{
		opts: opts,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}, nil
}

// Fetch retrieves target with mode and converts it to format
func (f *Fetcher) Fetch(ctx context.Context, target string, mode Mode, format Format) (string, error) {
	page, err := f.FetchRaw(ctx, target, mode)
	if err != nil {
		return "", err
	}
	return Convert(page, target, format)
}

// FetchRaw retrieves the HTML of target
func (f *Fetcher) FetchRaw(ctx context.Context, target string, mode Mode) (string, error) {
	start := time.Now()
	var (
		page string
		err  error
	)

	switch mode {
	case ModePlain, "":
		page, err = f.plain(ctx, target)
	case ModeHeadless:
		page, err = f.browser(ctx, target, true)
	case ModeHead:
		page, err = f.browser(ctx, target, false)
	case ModeExternal:
		page, err = f.external(ctx, target)
	default:
		err = fmt.Errorf("unknown fetch mode %q", mode)
	}
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"url":      target,
		"mode":     mode,
		"bytes":    len(page),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("fetched page")
	return page, nil
}

func (f *Fetcher) plain(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

func (f *Fetcher) allocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if f.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ChromePath))
	}
	if f.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(f.opts.Proxy))
	}
	return opts
}

// browser launches a Chrome owned by this call
func (f *Fetcher) browser(ctx context.Context, target string, headless bool) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions(headless)...)
	defer allocCancel()
	return f.render(allocCtx, target)
}

// external attaches to a browser whose lifecycle is managed elsewhere
func (f *Fetcher) external(ctx context.Context, target string) (string, error) {
	if f.opts.RemoteURL == "" {
		return "", errors.New("external fetch mode requires a web driver URL")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, f.opts.RemoteURL)
	defer allocCancel()
	return f.render(allocCtx, target)
}

func (f *Fetcher) render(allocCtx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(allocCtx, f.opts.Timeout+browserExtraTimeout)
	defer cancel()

	ctx, cancel = chromedp.NewContext(ctx)
	defer cancel()

	var page string
	err := chromedp.Run(ctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch: %w", err)
	}
	return page, nil
}
