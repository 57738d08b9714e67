// File: internal/portal/paginate.go
package portal

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// NextPage advances to the next result page if a next control is present,
// visible, and enabled. Returns false when the last page has been reached.
// Pages are visited strictly first-to-last; there is no way back.
func (c *Client) NextPage(ctx context.Context) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const btn = document.querySelector(%q);
		if (!btn) return 'missing';
		const style = window.getComputedStyle(btn);
		if (style.display === 'none' || style.visibility === 'hidden') return 'missing';
		const parent = btn.parentElement;
		const disabled = btn.classList.contains('disabled') ||
			(parent && parent.classList.contains('disabled')) ||
			btn.getAttribute('aria-disabled') === 'true' ||
			btn.disabled === true;
		if (disabled) return 'disabled';
		btn.scrollIntoView({block: 'center'});
		btn.click();
		return 'clicked';
	})()`, c.selectors[SelNextButton])

	if err := c.pace(ctx); err != nil {
		return false, err
	}

	var status string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &status)); err != nil {
		return false, fmt.Errorf("failed to inspect pagination control: %w", err)
	}

	switch status {
	case "clicked":
		c.logger.Info("Advancing to next result page")
		// DataTables swaps rows in place; give the page a bounded settle.
		settleCtx, cancel := context.WithTimeout(ctx, c.cfg.ResultsTimeout)
		defer cancel()
		if err := chromedp.Run(settleCtx, chromedp.Sleep(c.cfg.PostLoadWait)); err != nil {
			return false, fmt.Errorf("page settle interrupted: %w", err)
		}
		return true, nil
	case "disabled":
		c.logger.Info("Reached last page.")
		return false, nil
	default:
		c.logger.Info("No next page control found.")
		return false, nil
	}
}
