package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmylchreest/jobscribe/pkg/fetcher"
)

func TestDetectChallengePage(t *testing.T) {
	tests := []struct {
		name  string
		title string
		html  string
		want  string
	}{
		{"normal posting", "Backend Engineer at Acme", "<h1>Backend Engineer</h1>", ""},
		{"cloudflare title", "Just a moment...", "", "cloudflare"},
		{"cloudflare script", "", `<script>window._cf_chl_opt={}</script>`, "cloudflare"},
		{"turnstile", "", `<div class="cf-turnstile"></div>`, "cloudflare-turnstile"},
		{"hcaptcha", "", `<script src="https://hcaptcha.com/1/api.js"></script>`, "hcaptcha"},
		{"recaptcha", "", `<div class="g-recaptcha"></div>`, "recaptcha"},
		{"access denied", "Access Denied", "", "anti-bot"},
		{"robot check", "", "<p>Are you a robot or human?</p>", "anti-bot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectChallengePage(tt.title, tt.html); got != tt.want {
				t.Errorf("detectChallengePage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindBinary(t *testing.T) {
	look := func(name string) (string, error) {
		if name == "chromium" {
			return "/usr/bin/chromium", nil
		}
		return "", errors.New("not found")
	}
	if got := findBinary([]string{"google-chrome", "chromium", "chrome"}, look); got != "/usr/bin/chromium" {
		t.Errorf("findBinary() = %q", got)
	}
	if got := findBinary([]string{"google-chrome"}, look); got != "" {
		t.Errorf("findBinary() = %q, want empty", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{ChromePath: "/opt/chrome"}.withDefaults()
	if cfg.UserAgent != fetcher.DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != fetcher.DefaultTimeout {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.ChromePath != "/opt/chrome" {
		t.Errorf("ChromePath = %q", cfg.ChromePath)
	}

	cfg = Config{UserAgent: "ua", Timeout: time.Second, ChromePath: "x"}.withDefaults()
	if cfg.UserAgent != "ua" || cfg.Timeout != time.Second {
		t.Errorf("explicit settings overridden: %+v", cfg)
	}
}

func TestBrowserActions(t *testing.T) {
	var html, title string

	plain := browserActions(Config{}, "https://jobs.example.com/1", fetcher.Options{}, &html, &title)
	// network.Enable, Navigate, WaitReady, OuterHTML, Title
	if len(plain) != 5 {
		t.Errorf("plain actions = %d, want 5", len(plain))
	}

	full := browserActions(Config{Stealth: true}, "https://jobs.example.com/1", fetcher.Options{
		Headers:         map[string]string{"X-Test": "1"},
		Cookies:         []fetcher.Cookie{{Name: "session", Value: "abc"}},
		WaitForSelector: "#job",
		WaitDuration:    time.Millisecond,
	}, &html, &title)
	if len(full) != 9 {
		t.Errorf("full actions = %d, want 9", len(full))
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	f, err := NewDynamicFetcher(Config{ChromePath: "/nonexistent/chrome"})
	if err != nil {
		t.Fatalf("NewDynamicFetcher() error = %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	content, err := f.Fetch(ctx, "https://jobs.example.com/1", fetcher.Options{})
	if !errors.Is(err, fetcher.ErrFetchFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want fetch failure wrapping context.Canceled", err)
	}
	if content.HTML != "" {
		t.Errorf("HTML = %q, want empty", content.HTML)
	}
	if f.Type() != "dynamic" {
		t.Errorf("Type() = %q", f.Type())
	}
}
