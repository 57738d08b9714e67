// File: internal/scrape/pipeline_test.go
package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/config"
	"github.com/xkilldash9x/lhkpn-cli/internal/model"
	"github.com/xkilldash9x/lhkpn-cli/internal/portal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRow describes one result row the fake source serves.
type fakeRow struct {
	name string
	// failures is how many ExtractDetail calls fail before one succeeds.
	failures int
	// noLink makes ExtractDetail return portal.ErrNoDetailLink.
	noLink bool
}

// fakeSource serves scripted pages and counts the calls made against it.
type fakeSource struct {
	searchErr error
	pages     [][]fakeRow

	page         int
	nextCalls    int
	detailCalls  map[string]int
	summaryCalls int
}

func newFakeSource(searchErr error, pages ...[]fakeRow) *fakeSource {
	return &fakeSource{searchErr: searchErr, pages: pages, detailCalls: map[string]int{}}
}

func (f *fakeSource) Search(ctx context.Context, query string) error { return f.searchErr }

func (f *fakeSource) Rows(ctx context.Context) (int, error) {
	if f.page >= len(f.pages) {
		return 0, nil
	}
	return len(f.pages[f.page]), nil
}

func (f *fakeSource) SummaryRow(ctx context.Context, i int) (*model.Record, error) {
	f.summaryCalls++
	row := f.pages[f.page][i]
	rec := model.New()
	rec.Name = row.name
	rec.ReportYear = 2023
	return rec, nil
}

func (f *fakeSource) ExtractDetail(ctx context.Context, i int) (map[string][]model.AssetItem, error) {
	row := &f.pages[f.page][i]
	key := fmt.Sprintf("%d/%d", f.page, i)
	f.detailCalls[key]++
	if row.noLink {
		return nil, portal.ErrNoDetailLink
	}
	if row.failures > 0 {
		row.failures--
		return nil, errors.New("detail table did not become visible")
	}
	value := int64(1000)
	return map[string][]model.AssetItem{
		"cash": {{Description: "Kas di bank", Value: &value}},
	}, nil
}

func (f *fakeSource) NextPage(ctx context.Context) (bool, error) {
	f.nextCalls++
	f.page++
	return f.page < len(f.pages), nil
}

func newPipeline(src Source, maxResults int64) *Pipeline {
	return New(zap.NewNop(), config.ScrapeConfig{MaxResults: maxResults, RowRetries: 1}, src)
}

func pageOf(names ...string) []fakeRow {
	rows := make([]fakeRow, len(names))
	for i, n := range names {
		rows[i] = fakeRow{name: n}
	}
	return rows
}

func recordNames(records []model.Record) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestRunNoResults(t *testing.T) {
	src := newFakeSource(portal.ErrNoResults)
	records, err := newPipeline(src, 10).Run(context.Background(), "nobody")
	require.NoError(t, err)
	require.NotNil(t, records)
	assert.Empty(t, records)
}

func TestRunSearchFailureIsFatal(t *testing.T) {
	src := newFakeSource(errors.New("results never rendered"))
	records, err := newPipeline(src, 10).Run(context.Background(), "anyone")
	require.Error(t, err)
	assert.Nil(t, records)
}

func TestRunCollectsAllPagesInOrder(t *testing.T) {
	src := newFakeSource(nil, pageOf("A", "B"), pageOf("C", "D"), pageOf("E"))
	records, err := newPipeline(src, 0).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, recordNames(records))
	assert.Equal(t, 3, src.nextCalls)

	// Details were merged into each record.
	require.NotEmpty(t, records[0].Cash)
	assert.Equal(t, "Kas di bank", records[0].Cash[0].Description)
}

func TestRunLimiterStopsExactlyAtMax(t *testing.T) {
	src := newFakeSource(nil, pageOf("A", "B", "C", "D"), pageOf("E", "F", "G", "H"), pageOf("I"))
	records, err := newPipeline(src, 5).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, recordNames(records))

	// Stopped mid page two: one page turn, and rows F..H never opened.
	assert.Equal(t, 1, src.nextCalls)
	assert.Equal(t, 5, src.summaryCalls)
	assert.Zero(t, src.detailCalls["1/1"])
}

func TestRunSkipsRowAfterExhaustedRetries(t *testing.T) {
	page := pageOf("A", "B", "C", "D")
	page[2].failures = 10
	src := newFakeSource(nil, page)

	records, err := newPipeline(src, 0).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D"}, recordNames(records))
	// One attempt plus one configured retry.
	assert.Equal(t, 2, src.detailCalls["0/2"])
}

func TestRunRetryRecoversRow(t *testing.T) {
	page := pageOf("A", "B")
	page[1].failures = 1
	src := newFakeSource(nil, page)

	records, err := newPipeline(src, 0).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, recordNames(records))
	assert.Equal(t, 2, src.detailCalls["0/1"])
	require.NotEmpty(t, records[1].Cash)
}

func TestRunKeepsSummaryWhenDetailLinkMissing(t *testing.T) {
	page := pageOf("A", "B")
	page[0].noLink = true
	src := newFakeSource(nil, page)

	records, err := newPipeline(src, 0).Run(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Name)
	assert.Empty(t, records[0].Cash)
	assert.NotEmpty(t, records[1].Cash)
	// No retries are spent on a row that has no detail control at all.
	assert.Equal(t, 1, src.detailCalls["0/0"])
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newFakeSource(nil, pageOf("A"))
	_, err := newPipeline(src, 0).Run(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// failingRowsSource reports a page-level failure after serving one good page.
type failingRowsSource struct {
	*fakeSource
	rowsCalls int
}

func (f *failingRowsSource) Rows(ctx context.Context) (int, error) {
	f.rowsCalls++
	if f.rowsCalls > 1 {
		return 0, errors.New("table detached during render")
	}
	return f.fakeSource.Rows(ctx)
}

func TestRunEmitsCollectedRecordsOnPageFailure(t *testing.T) {
	src := &failingRowsSource{fakeSource: newFakeSource(nil, pageOf("A", "B"), pageOf("C"))}
	records, err := newPipeline(src, 0).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, recordNames(records))
}
