// File: internal/scrape/pipeline.go
package scrape

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/config"
	"github.com/xkilldash9x/lhkpn-cli/internal/model"
	"github.com/xkilldash9x/lhkpn-cli/internal/portal"
)

// Source is the portal surface the pipeline drives. *portal.Client is the
// production implementation; tests substitute a fake.
type Source interface {
	// Search submits the query and waits for the result list. Returns
	// portal.ErrNoResults for a valid empty search.
	Search(ctx context.Context, query string) error
	// Rows returns the number of extractable summary rows on the current page.
	Rows(ctx context.Context) (int, error)
	// SummaryRow reads row i into a record with empty itemized collections.
	SummaryRow(ctx context.Context, i int) (*model.Record, error)
	// ExtractDetail opens, parses, and closes the detail view of row i.
	// Returns portal.ErrNoDetailLink when the row has no detail control.
	ExtractDetail(ctx context.Context, i int) (map[string][]model.AssetItem, error)
	// NextPage advances to the next result page, reporting false on the last.
	NextPage(ctx context.Context) (bool, error)
}

// Pipeline executes the three scrape phases (search, paginate/extract,
// collect) sequentially against a single browser tab. It owns the limiter
// and the row-level skip/retry policy; the caller owns export.
type Pipeline struct {
	logger *zap.Logger
	cfg    config.ScrapeConfig
	source Source
}

// New creates a pipeline over the given source.
func New(logger *zap.Logger, cfg config.ScrapeConfig, source Source) *Pipeline {
	return &Pipeline{
		logger: logger.Named("pipeline"),
		cfg:    cfg,
		source: source,
	}
}

// Run performs one full scrape for the query and returns the collected
// records in portal order. Zero results is a valid empty slice, not an
// error. Row-local failures are absorbed and logged; only search failure,
// context cancellation, and browser-level errors escalate.
func (p *Pipeline) Run(ctx context.Context, query string) ([]model.Record, error) {
	if err := p.source.Search(ctx, query); err != nil {
		if errors.Is(err, portal.ErrNoResults) {
			p.logger.Info("No records found for query", zap.String("query", query))
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	limiter := NewLimiter(p.cfg.MaxResults)
	records := []model.Record{}

	for pageNum := 1; ; pageNum++ {
		p.logger.Info("Processing result page", zap.Int("page", pageNum))

		count, err := p.source.Rows(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Emit what was collected rather than discarding the run.
			p.logger.Warn("Could not read result rows, stopping pagination",
				zap.Int("page", pageNum), zap.Error(err))
			break
		}
		if count == 0 {
			p.logger.Info("Page has no extractable rows", zap.Int("page", pageNum))
			break
		}
		p.logger.Info("Found rows on page", zap.Int("page", pageNum), zap.Int("rows", count))

		for i := 0; i < count; i++ {
			if limiter.Satisfied() {
				break
			}
			rec, ok := p.extractRow(ctx, pageNum, i)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !ok {
				continue
			}
			limiter.Admit()
			records = append(records, *rec)
		}

		if limiter.Satisfied() {
			p.logger.Info("Result limit reached", zap.Int64("count", limiter.Count()))
			break
		}

		more, err := p.source.NextPage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("Pagination failed, stopping with records collected so far", zap.Error(err))
			break
		}
		if !more {
			break
		}
	}

	p.logger.Info("Scrape complete", zap.Int("records", len(records)))
	return records, nil
}

// extractRow builds one record from summary cells plus its detail view.
// A detail-view timeout gets the configured number of retries; if it still
// fails the row is skipped and logged as an omission. A row without a
// detail link keeps its summary fields and empty collections.
func (p *Pipeline) extractRow(ctx context.Context, pageNum, i int) (*model.Record, bool) {
	rec, err := p.source.SummaryRow(ctx, i)
	if err != nil {
		p.logger.Warn("Skipping row: summary cells unreadable",
			zap.Int("page", pageNum), zap.Int("row", i), zap.Error(err))
		return nil, false
	}

	details, err := p.source.ExtractDetail(ctx, i)
	for attempt := 0; err != nil && !errors.Is(err, portal.ErrNoDetailLink) &&
		ctx.Err() == nil && attempt < p.cfg.RowRetries; attempt++ {
		p.logger.Warn("Retrying detail view",
			zap.Int("page", pageNum), zap.Int("row", i),
			zap.String("name", rec.Name), zap.Error(err))
		details, err = p.source.ExtractDetail(ctx, i)
	}

	switch {
	case err == nil:
		for name, items := range details {
			rec.SetCollection(name, items)
		}
	case errors.Is(err, portal.ErrNoDetailLink):
		p.logger.Info("Row has no detail link, keeping summary fields",
			zap.Int("page", pageNum), zap.Int("row", i), zap.String("name", rec.Name))
	case ctx.Err() != nil:
		return nil, false
	default:
		p.logger.Warn("Skipping row: detail view failed",
			zap.Int("page", pageNum), zap.Int("row", i),
			zap.String("name", rec.Name), zap.Error(err))
		return nil, false
	}

	return rec, true
}
