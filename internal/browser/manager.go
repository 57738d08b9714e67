// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/browser/stealth"
	"github.com/xkilldash9x/lhkpn-cli/internal/config"
)

// Manager owns the headless browser process and the single tab the scrape
// runs in. Acquisition is fatal-on-failure; release is guaranteed through
// Shutdown, which callers defer around the whole pipeline run.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	// allocatorCtx manages the browser process. The tab context derives from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	tabCtx          context.Context
	tabCancel       context.CancelFunc

	persona stealth.Persona
}

// NewManager launches the browser process, opens the scraping tab, and
// applies the stealth persona before any portal navigation happens.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig) (*Manager, error) {
	m := &Manager{
		logger:  logger.Named("browser"),
		cfg:     cfg,
		persona: stealth.DefaultPersona(),
	}
	if cfg.UserAgent != "" {
		m.persona.UserAgent = cfg.UserAgent
	}

	if err := m.launch(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launch prepares allocator options, starts the browser process, and
// verifies it responds before the pipeline takes over.
func (m *Manager) launch(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...", zap.Bool("headless", m.cfg.Headless))

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, BuildAllocatorOptions(m.cfg, m.persona)...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = allocCancel

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	m.tabCtx = tabCtx
	m.tabCancel = tabCancel

	// Confirm the browser is alive and register the stealth overrides on the
	// fresh tab. A browser that cannot open about:blank is a fatal failure.
	startCtx, cancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx,
		stealth.Apply(m.persona, m.logger),
		chromedp.Navigate("about:blank"),
	); err != nil {
		m.Shutdown()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// Context returns the tab context all portal interactions run against.
func (m *Manager) Context() context.Context {
	return m.tabCtx
}

// Shutdown terminates the tab and the browser process. Safe to call more
// than once and on a partially constructed manager.
func (m *Manager) Shutdown() {
	if m.tabCancel != nil {
		m.tabCancel()
	}
	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down browser process...")
		m.allocatorCancel()
		// Wait for the allocator context to confirm process termination.
		<-m.allocatorCtx.Done()
	}
}

// BuildAllocatorOptions assembles the flags for a stealthy browser instance.
// Exported so tests can assert the fingerprinting-sensitive flags without
// launching a browser.
func BuildAllocatorOptions(cfg config.BrowserConfig, persona stealth.Persona) []chromedp.ExecAllocatorOption {
	// Start from chromedp's defaults. Later flags override earlier ones, so
	// the fingerprinting-sensitive flags below always win.
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		// Suppresses the switch that announces automation to the page and
		// disables the Blink feature behind navigator.webdriver.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.WindowSize(int(persona.Screen.Width), int(persona.Screen.Height)),
		chromedp.UserAgent(persona.UserAgent),
	)

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// Custom arguments from configuration, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers (e.g. Docker on Linux).
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}
