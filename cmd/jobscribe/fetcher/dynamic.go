package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/pkg/fetcher"
)

// DynamicFetcher renders pages in headless Chrome. It honours the same
// failure contract as the static fetcher: a failed fetch returns empty HTML
// and a *fetcher.FetchError, and challenge pages are reported as
// fetcher.ErrAntiBot.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamicFetcher creates a fetcher backed by a browser allocator. The
// browser itself starts on the first Fetch.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], baseAllocatorOptions()...)
	if cfg.Stealth {
		opts = append(chromedp.DefaultExecAllocatorOptions[:], stealthAllocatorOptions()...)
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	opts = append(opts, chromedp.UserAgent(cfg.UserAgent))

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created",
		"stealth", cfg.Stealth,
		"chrome", cfg.ChromePath,
		"timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancel,
	}, nil
}

// Fetch loads targetURL in a fresh browser tab and returns the rendered HTML.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts fetcher.Options) (fetcher.Content, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL, "stealth", f.config.Stealth)

	if err := ctx.Err(); err != nil {
		return fetcher.Failed(targetURL, 0, err)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	// The first document response belongs to the main frame; redirects do
	// not emit one.
	var status atomic.Int64
	chromedp.ListenTarget(timeoutCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	var html, title string
	if err := chromedp.Run(timeoutCtx, browserActions(f.config, targetURL, opts, &html, &title)...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetcher.Failed(targetURL, 0, ctxErr)
		}
		logger.Debug("dynamic fetch failed", "url", targetURL, "error", err)
		return fetcher.Failed(targetURL, int(status.Load()), fmt.Errorf("browser automation failed: %w", err))
	}

	code := int(status.Load())
	if code == 0 {
		code = http.StatusOK
	}
	if !fetcher.IsSuccess(code) {
		return fetcher.Failed(targetURL, code, fmt.Errorf("unexpected status: %s", http.StatusText(code)))
	}
	if challenge := detectChallengePage(title, html); challenge != "" {
		logger.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return fetcher.Failed(targetURL, code, fmt.Errorf("%w: %s", fetcher.ErrAntiBot, challenge))
	}

	logger.Debug("dynamic fetch complete", "url", targetURL, "status", code, "html_size", len(html))
	return fetcher.Content{
		URL:         targetURL,
		HTML:        html,
		Title:       strings.Join(strings.Fields(title), " "),
		StatusCode:  code,
		ContentType: "text/html",
		FetchedAt:   time.Now(),
	}, nil
}

// browserActions builds the action list for one page load.
func browserActions(cfg Config, targetURL string, opts fetcher.Options, html, title *string) []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}

	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if len(opts.Cookies) > 0 {
		actions = append(actions, setCookies(targetURL, opts.Cookies))
	}
	if cfg.Stealth {
		actions = append(actions, injectStealthScript())
	}

	actions = append(actions, chromedp.Navigate(targetURL))

	// WaitVisible polls forever on some boards; WaitReady does not.
	waitFor := opts.WaitForSelector
	if waitFor == "" {
		waitFor = "body"
	}
	actions = append(actions, chromedp.WaitReady(waitFor))

	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}

	return append(actions,
		chromedp.OuterHTML("html", html),
		chromedp.Title(title),
	)
}

// detectChallengePage reports the kind of interstitial a page is, or "" for
// a normal page.
func detectChallengePage(title, html string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(html)

	switch {
	case strings.Contains(titleLower, "just a moment"),
		strings.Contains(titleLower, "attention required"),
		strings.Contains(htmlLower, "cf-challenge"),
		strings.Contains(htmlLower, "cf_chl_opt"):
		return "cloudflare"
	case strings.Contains(htmlLower, "challenges.cloudflare.com/turnstile"),
		strings.Contains(htmlLower, "cf-turnstile"):
		return "cloudflare-turnstile"
	case strings.Contains(htmlLower, "hcaptcha.com"),
		strings.Contains(htmlLower, "h-captcha"):
		return "hcaptcha"
	case strings.Contains(htmlLower, "google.com/recaptcha"),
		strings.Contains(htmlLower, "g-recaptcha"):
		return "recaptcha"
	case strings.Contains(titleLower, "access denied"),
		strings.Contains(titleLower, "bot detection"),
		strings.Contains(htmlLower, "robot or human"):
		return "anti-bot"
	}
	return ""
}

// setCookies sets cookies for the target host before navigation.
func setCookies(targetURL string, cookies []fetcher.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		u, err := url.Parse(targetURL)
		if err != nil {
			return fmt.Errorf("failed to parse URL for cookies: %w", err)
		}

		params := make([]*network.CookieParam, 0, len(cookies))
		for _, c := range cookies {
			domain := c.Domain
			if domain == "" {
				domain = u.Hostname()
			}
			params = append(params, &network.CookieParam{
				Name:   c.Name,
				Value:  c.Value,
				Domain: domain,
				Path:   "/",
				Secure: u.Scheme == "https",
			})
		}
		return network.SetCookies(params).Do(ctx)
	})
}

// Close shuts down the browser.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}

var _ fetcher.Fetcher = (*DynamicFetcher)(nil)
