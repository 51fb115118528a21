package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"chess-scout/config"
	"chess-scout/scraper"
)

// userAgent wird für alle Browser-Kontexte gesetzt.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// ErrTimeout wird zurückgegeben, wenn Navigation oder Selektor-Wartezeit ablaufen.
var ErrTimeout = errors.New("browser timeout")

// Browser ist ein gestarteter Chromium-Prozess. Jede Session bekommt einen eigenen
// BrowserContext mit eigener Seite.
type Browser struct {
	Logger *zap.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
}

// Launch startet Playwright und Chromium gemäß der Konfiguration.
func Launch(cfg *config.Config, logger *zap.Logger) (*Browser, error) {
	if cfg.BrowserInstall {
		logger.Info("Installiere Playwright-Treiber und Chromium")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(cfg.BrowserHeadless)}
	if cfg.BrowserExecutable != "" {
		opts.ExecutablePath = playwright.String(cfg.BrowserExecutable)
	}
	b, err := pw.Chromium.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	logger.Debug("Chromium gestartet", zap.Bool("headless", cfg.BrowserHeadless))
	return &Browser{Logger: logger, pw: pw, browser: b}, nil
}

// NewSession öffnet einen isolierten Kontext mit einer neuen Seite.
func (b *Browser) NewSession(ctx context.Context) (scraper.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &session{bctx: bctx, page: page}, nil
}

// Close beendet Browser und Playwright-Treiber.
func (b *Browser) Close() error {
	err := b.browser.Close()
	if stopErr := b.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}

type session struct {
	bctx playwright.BrowserContext
	page playwright.Page
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func wrap(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (s *session) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   millis(timeout),
	})
	return wrap(err)
}

func (s *session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap(s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: millis(timeout),
	}))
}

func (s *session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *session) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.page.Locator(selector).Count()
}

func (s *session) ClickFirst(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	loc := s.page.Locator(selector).First()
	visible, err := loc.IsVisible()
	if err != nil || !visible {
		return false, nil
	}
	if err := loc.Click(playwright.LocatorClickOptions{Timeout: millis(timeout)}); err != nil {
		return false, wrap(err)
	}
	return true, nil
}

func (s *session) Close() error {
	return s.bctx.Close()
}
