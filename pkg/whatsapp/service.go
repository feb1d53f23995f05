package whatsapp

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"wasend/pkg/tools"
)

const (
	// DefaultTimeout bounds the wait for WhatsApp Web to become ready.
	DefaultTimeout = 120 * time.Second

	navigationTimeout = 60 * time.Second
	pollInterval      = 800 * time.Millisecond
	heartbeatEvery    = 10 * time.Second
	confirmTimeout    = 20 * time.Second
	confirmInterval   = time.Second
	settleDelay       = 1500 * time.Millisecond
)

// Options configures a WebSender.
type Options struct {
	ProfileDir string
	Headless   bool
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// WebSender drives WhatsApp Web through a persistent browser profile to send
// a single message.
type WebSender struct {
	profileDir string
	headless   bool
	timeout    time.Duration
	logger     zerolog.Logger

	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page

	qrPrompted bool
	lastQR     string
}

func NewWebSender(opts Options) *WebSender {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &WebSender{
		profileDir: opts.ProfileDir,
		headless:   opts.Headless,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
}

// Start installs the browser driver on first use and opens the persistent
// profile so the saved login survives across runs.
func (ws *WebSender) Start() error {
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		return fmt.Errorf("failed to install browser driver: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	ws.pw = pw

	browser, err := pw.Chromium.LaunchPersistentContext(ws.profileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(ws.headless),
	})
	if err != nil {
		pw.Stop()
		if session, serr := tools.NewSessionManager(ws.profileDir); serr == nil && session.Locked() {
			return fmt.Errorf("failed to launch browser, another instance may be using profile %s: %w", ws.profileDir, err)
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	ws.browser = browser

	// A persistent context opens with a blank tab already attached.
	if pages := browser.Pages(); len(pages) > 0 {
		ws.page = pages[0]
	} else {
		page, err := browser.NewPage()
		if err != nil {
			ws.Close()
			return fmt.Errorf("failed to open page: %w", err)
		}
		ws.page = page
	}

	ws.logger.Debug().Str("profile", ws.profileDir).Bool("headless", ws.headless).Msg("browser started")
	return nil
}

// Close shuts the browser down and releases the driver.
func (ws *WebSender) Close() {
	if ws.browser != nil {
		if err := ws.browser.Close(); err != nil {
			ws.logger.Debug().Err(err).Msg("failed to close browser")
		}
		ws.browser = nil
	}
	if ws.pw != nil {
		if err := ws.pw.Stop(); err != nil {
			ws.logger.Debug().Err(err).Msg("failed to stop playwright")
		}
		ws.pw = nil
	}
}
