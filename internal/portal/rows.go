// File: internal/portal/rows.go
package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/model"
)

// Column offsets for the two layouts the result table is known to render
// with. The wide layout prefixes control columns; the narrow one starts at
// the name. When the wide offsets produce an empty name or a total without
// a currency marker, the narrow offsets are used instead.
var (
	wideOffsets   = rowOffsets{name: 6, institution: 7, workUnit: 8, position: 9, reportDate: 10, reportType: 11, total: 12}
	narrowOffsets = rowOffsets{name: 1, institution: 2, workUnit: 3, position: 4, reportDate: 5, reportType: 6, total: 7}
)

type rowOffsets struct {
	name, institution, workUnit, position, reportDate, reportType, total int
}

// Rows returns the number of extractable summary rows on the current page.
// A first row with fewer than five cells is the table's placeholder or
// loading message, reported as zero rows.
func (c *Client) Rows(ctx context.Context) (int, error) {
	js := fmt.Sprintf(`(() => {
		const rows = document.querySelectorAll(%q);
		if (rows.length === 0) return 0;
		if (rows[0].querySelectorAll('td').length < 5) return 0;
		return rows.length;
	})()`, c.selectors[SelResultRows])

	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &count)); err != nil {
		return 0, fmt.Errorf("failed to count result rows: %w", err)
	}
	return count, nil
}

// SummaryRow reads the visible cells of row i and maps them into a record
// with empty itemized collections. Field-local parse failures (total,
// year) degrade to null/zero; they never fail the row.
func (c *Client) SummaryRow(ctx context.Context, i int) (*model.Record, error) {
	js := fmt.Sprintf(`(() => {
		const rows = document.querySelectorAll(%q);
		if (%d >= rows.length) return null;
		return Array.from(rows[%d].querySelectorAll('td')).map(td => td.innerText.trim());
	})()`, c.selectors[SelResultRows], i, i)

	var cells []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &cells)); err != nil {
		return nil, fmt.Errorf("failed to read cells of row %d: %w", i, err)
	}
	if cells == nil {
		return nil, fmt.Errorf("row %d is no longer present", i)
	}

	rec := buildSummaryRecord(cells)
	if rec.TotalAssets == nil {
		c.logger.Debug("Total assets did not parse for row",
			zap.Int("row", i), zap.String("name", rec.Name))
	}
	return rec, nil
}

// buildSummaryRecord maps raw cell texts into a record, falling back to the
// narrow column layout when the wide one clearly missed.
func buildSummaryRecord(cells []string) *model.Record {
	cell := func(idx int) string {
		if idx < len(cells) {
			return strings.TrimSpace(cells[idx])
		}
		return ""
	}

	offsets := wideOffsets
	if cell(offsets.name) == "" || !strings.Contains(cell(offsets.total), "Rp") {
		offsets = narrowOffsets
	}

	rec := model.New()
	rec.Name = cell(offsets.name)
	rec.Institution = cell(offsets.institution)
	rec.WorkUnit = cell(offsets.workUnit)
	rec.Position = cell(offsets.position)
	rec.ReportDate = cell(offsets.reportDate)
	rec.ReportType = cell(offsets.reportType)
	rec.ReportYear = model.YearFrom(rec.ReportDate)
	rec.TotalAssets = model.RupiahOrNil(cell(offsets.total))
	return rec
}
