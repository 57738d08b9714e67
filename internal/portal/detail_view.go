// File: internal/portal/detail_view.go
package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/model"
)

// ExtractDetail opens the comparison modal for row i, snapshots its inner
// HTML, parses the itemized categories off-DOM, and closes the modal so no
// state leaks into the next extraction. Returns ErrNoDetailLink when the
// row carries no detail control.
func (c *Client) ExtractDetail(ctx context.Context, i int) (map[string][]model.AssetItem, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	if err := c.openDetail(ctx, i); err != nil {
		return nil, err
	}

	modal := c.selectors[SelDetailModal]
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.DetailTimeout)
	err := chromedp.Run(waitCtx,
		chromedp.WaitVisible(c.selectors[SelDetailTable], chromedp.ByQuery),
		// The modal table renders before its data finishes populating.
		chromedp.Sleep(1500*time.Millisecond),
	)
	cancel()
	if err != nil {
		// Leave the page modal-free even on the failure path.
		c.closeDetail(ctx)
		return nil, fmt.Errorf("detail view for row %d did not populate within %s: %w", i, c.cfg.DetailTimeout, err)
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.InnerHTML(modal, &html, chromedp.ByQuery)); err != nil {
		c.closeDetail(ctx)
		return nil, fmt.Errorf("failed to snapshot detail modal for row %d: %w", i, err)
	}

	details := ParseDetail(html)
	c.closeDetail(ctx)
	return details, nil
}

// openDetail clicks the detail link of row i. The click happens in page JS
// so a stale row reference surfaces as a status string, not a CDP error.
func (c *Client) openDetail(ctx context.Context, i int) error {
	js := fmt.Sprintf(`(() => {
		const rows = document.querySelectorAll(%q);
		const row = rows[%d];
		if (!row) return 'gone';
		const link = row.querySelector(%q);
		if (!link) return 'none';
		const style = window.getComputedStyle(link);
		if (style.display === 'none' || style.visibility === 'hidden') return 'hidden';
		link.scrollIntoView({block: 'center'});
		link.click();
		return 'clicked';
	})()`, c.selectors[SelResultRows], i, c.selectors[SelDetailLink])

	var status string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &status)); err != nil {
		return fmt.Errorf("failed to trigger detail view for row %d: %w", i, err)
	}
	switch status {
	case "clicked":
		return nil
	case "none", "hidden":
		return ErrNoDetailLink
	default:
		return fmt.Errorf("row %d disappeared before its detail view opened", i)
	}
}

// closeDetail closes the modal via its close button, falling back to the
// Escape key. Best effort: a modal that refuses to close will surface as a
// failure on the next row's interaction.
func (c *Client) closeDetail(ctx context.Context) {
	js := fmt.Sprintf(`(() => {
		const btn = document.querySelector(%q);
		if (!btn) return false;
		const style = window.getComputedStyle(btn);
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		btn.click();
		return true;
	})()`, c.selectors[SelDetailClose])

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		c.logger.Warn("Failed to click modal close button", zap.Error(err))
	}

	if clicked {
		waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ModalCloseTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitNotVisible(c.selectors[SelDetailModal], chromedp.ByQuery))
		cancel()
		if err == nil {
			return
		}
		c.logger.Warn("Modal did not hide after close click, sending Escape", zap.Error(err))
	}

	if err := chromedp.Run(ctx,
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(time.Second),
	); err != nil {
		c.logger.Warn("Escape fallback failed while closing modal", zap.Error(err))
	}
}
