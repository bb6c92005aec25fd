// Package browser loads pages in a headless Chromium through go-rod and
// exposes their rendered elements as dom.Element values.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/hashicorp/go-hclog"
)

// Config controls how the browser is started.
type Config struct {
	// RemoteURL is the DevTools websocket of an already running browser.
	// Empty launches a local one.
	RemoteURL         string
	Headless          bool
	Stealth           bool
	NavigationTimeout time.Duration
	Logger            hclog.Logger
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
}

// Browser is a connected Chromium instance.
type Browser struct {
	cfg  Config
	rod  *rod.Browser
	lnch *launcher.Launcher
}

// Launch starts (or connects to) a browser.
func Launch(ctx context.Context, cfg Config) (*Browser, error) {
	cfg.defaults()

	wsURL := cfg.RemoteURL
	var l *launcher.Launcher
	if wsURL == "" {
		l = launcher.New().Context(ctx)
		l.Headless(cfg.Headless)
		l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
	}

	cfg.Logger.Debug("browser ready", "remote", cfg.RemoteURL != "", "headless", cfg.Headless)
	return &Browser{cfg: cfg, rod: b, lnch: l}, nil
}

// Close shuts the browser down. A remote browser is only disconnected.
func (b *Browser) Close() error {
	err := b.rod.Close()
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
	return err
}

// Open creates a tab and loads rawURL into it.
func (b *Browser) Open(ctx context.Context, rawURL string) (*Page, error) {
	var page *rod.Page
	var err error
	if b.cfg.Stealth {
		page, err = stealth.Page(b.rod)
	} else {
		page, err = b.rod.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(rawURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", rawURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browser: wait load timeout", "url", rawURL, "error", err)
	}

	return &Page{
		rod:    page.Context(ctx),
		url:    rawURL,
		logger: b.cfg.Logger.Named("page"),
	}, nil
}
