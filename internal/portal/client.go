// File: internal/portal/client.go
package portal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/lhkpn-cli/internal/config"
)

// Sentinel errors that callers branch on.
var (
	// ErrNoResults means the portal rendered its empty-search message. A
	// valid terminal state, not a failure.
	ErrNoResults = errors.New("portal: search returned no results")
	// ErrNoDetailLink means the summary row carries no detail-view control;
	// the record is emitted with summary fields only.
	ErrNoDetailLink = errors.New("portal: row has no detail link")
)

// screenshotPath is where a failed search leaves its diagnostic capture.
const screenshotPath = "search_failure.png"

// Client drives the e-LHKPN portal inside an existing browser tab context.
// All interactions are sequential; every wait is bounded by a configured
// timeout. The client holds no DOM references between calls.
type Client struct {
	logger    *zap.Logger
	cfg       config.PortalConfig
	selectors SelectorMap
	// pacer spaces page turns and modal opens so the portal is not hammered.
	pacer *rate.Limiter
}

// NewClient validates the selector map and returns a portal client.
func NewClient(logger *zap.Logger, cfg config.PortalConfig, selectors SelectorMap) (*Client, error) {
	if selectors == nil {
		selectors = DefaultSelectors()
	}
	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("selector validation failed: %w", err)
	}
	return &Client{
		logger:    logger.Named("portal"),
		cfg:       cfg,
		selectors: selectors,
		pacer:     rate.NewLimiter(rate.Limit(cfg.InteractionRate), 1),
	}, nil
}

// popupSweepJS dismisses the remodal/bootstrap announcement popups the
// portal opens on load. One sweep; the caller loops until none remain.
const popupSweepJS = `(() => {
	document.querySelectorAll('.remodal-close').forEach(btn => btn.click());
	document.querySelectorAll('.remodal-wrapper.remodal-is-opened').forEach(w => { w.style.display = 'none'; });
	const backdrop = document.querySelector('.remodal-overlay');
	if (backdrop) backdrop.remove();
	document.body.classList.remove('remodal-is-active');
	document.querySelectorAll('.modal.in, .modal.show').forEach(m => {
		const close = m.querySelector('button.close, .btn-close');
		if (close) close.click(); else m.style.display = 'none';
	});
	return document.querySelector('.remodal-is-opened, .modal.in, .modal.show') === null;
})()`

// Search navigates to the announcement page, submits the name query, and
// waits for the result list to render. Returns ErrNoResults for an empty
// search; any other error is fatal for the run.
func (c *Client) Search(ctx context.Context, query string) error {
	c.logger.Info("Searching portal", zap.String("query", query))

	if err := c.navigate(ctx); err != nil {
		return err
	}
	c.dismissPopups(ctx)
	c.activateAnnouncementTab(ctx)

	if err := c.waitSearchInput(ctx); err != nil {
		return fmt.Errorf("search input never rendered: %w", err)
	}

	input := c.selectors[SelSearchInput]
	submit := c.selectors[SelSearchSubmit]
	if err := chromedp.Run(ctx,
		chromedp.Click(input, chromedp.ByQuery),
		chromedp.Clear(input, chromedp.ByQuery),
		chromedp.SendKeys(input, query, chromedp.ByQuery),
		chromedp.Click(submit, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to submit search form: %w", err)
	}

	return c.waitResults(ctx)
}

// navigate opens the search page. If the full load times out, one relaxed
// retry waits only for the DOM to be ready.
func (c *Client) navigate(ctx context.Context) error {
	url := c.cfg.SearchPage()

	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.logger.Warn("Initial navigation timed out, retrying with relaxed wait", zap.Error(err))
	retryCtx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(retryCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(c.cfg.PostLoadWait),
	); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// dismissPopups sweeps announcement popups until none remain, at most five
// passes. Failures here are logged and ignored; the search-input wait is
// the authoritative readiness signal.
func (c *Client) dismissPopups(ctx context.Context) {
	c.logger.Debug("Dismissing initial popups")
	for i := 0; i < 5; i++ {
		var clear bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(popupSweepJS, &clear)); err != nil {
			c.logger.Warn("Popup sweep failed", zap.Error(err))
			return
		}
		if clear {
			return
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(time.Second)); err != nil {
			return
		}
	}
}

// activateAnnouncementTab brings the search form into view. The tab click
// can fail when an overlay lingers; setting the location hash is the
// equivalent fallback.
func (c *Client) activateAnnouncementTab(ctx context.Context) {
	clickCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := chromedp.Run(clickCtx,
		chromedp.Click(c.selectors[SelAnnouncementTab], chromedp.ByQuery),
		chromedp.Sleep(c.cfg.PostLoadWait),
	)
	cancel()
	if err == nil {
		return
	}
	c.logger.Warn("Could not click announcement tab, setting location hash", zap.Error(err))
	var ignored bool
	_ = chromedp.Run(ctx,
		chromedp.Evaluate(`(window.location.hash = '#announ') !== ''`, &ignored),
		chromedp.Sleep(time.Second),
	)
}

// waitSearchInput waits for the search input, re-setting the hash and
// waiting once more if the first wait expires.
func (c *Client) waitSearchInput(ctx context.Context) error {
	input := c.selectors[SelSearchInput]

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ResultsTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitVisible(input, chromedp.ByQuery))
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.logger.Warn("Search input not found, refreshing hash and waiting again")
	retryCtx, cancel := context.WithTimeout(ctx, c.cfg.ResultsTimeout)
	defer cancel()
	var ignored bool
	return chromedp.Run(retryCtx,
		chromedp.Evaluate(`(window.location.hash = '#announ') !== ''`, &ignored),
		chromedp.WaitVisible(input, chromedp.ByQuery),
	)
}

// waitResults waits for the result table. Distinguishes the portal's
// explicit empty-search state (ErrNoResults) from a genuine render failure,
// which captures a diagnostic screenshot and is fatal.
func (c *Client) waitResults(ctx context.Context) error {
	c.logger.Info("Waiting for search results...")

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ResultsTimeout)
	err := chromedp.Run(waitCtx,
		chromedp.WaitVisible(c.selectors[SelResultRows], chromedp.ByQuery),
		chromedp.Sleep(c.cfg.PostLoadWait),
	)
	cancel()
	if err == nil {
		c.logger.Info("Found search results table.")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var noResults bool
	checkJS := fmt.Sprintf(
		`document.body !== null && document.body.innerText.includes(%q)`, NoResultsText)
	if evalErr := chromedp.Run(ctx, chromedp.Evaluate(checkJS, &noResults)); evalErr == nil && noResults {
		c.logger.Info("Search returned no results.")
		return ErrNoResults
	}

	c.captureFailureScreenshot(ctx)
	return fmt.Errorf("results table did not appear within %s: %w", c.cfg.ResultsTimeout, err)
}

// captureFailureScreenshot saves a PNG of the current page for selector
// debugging. Best effort; errors are only logged.
func (c *Client) captureFailureScreenshot(ctx context.Context) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		c.logger.Warn("Failed to capture failure screenshot", zap.Error(err))
		return
	}
	if err := os.WriteFile(screenshotPath, buf, 0o644); err != nil {
		c.logger.Warn("Failed to write failure screenshot", zap.Error(err))
		return
	}
	c.logger.Info("Saved failure screenshot", zap.String("path", screenshotPath))
}

// pace blocks until the politeness limiter admits the next page-level
// interaction.
func (c *Client) pace(ctx context.Context) error {
	return c.pacer.Wait(ctx)
}
