// File: internal/export/export.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Exporter serializes a record set to a single output. Field order is fixed
// and identical across formats; an existing file at the target path is
// overwritten, never merged.
type Exporter interface {
	// Write serializes the full record set.
	Write(records []model.Record) error
	// Close finalizes the output and releases the underlying file handle.
	Close() error
}

// New creates an exporter for the given format writing to outputPath.
// "stdout" (or an empty path) writes to standard output. The output file is
// created here, so callers construct the exporter only after the scrape has
// succeeded; fatal scrape errors leave no partial output behind.
func New(format, outputPath string, logger *zap.Logger) (Exporter, error) {
	var writer io.WriteCloser
	isStdout := outputPath == "" || outputPath == "stdout"
	if isStdout {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	l := logger.Named("export").With(zap.String("format", format), zap.String("path", outputPath))
	switch format {
	case "json":
		return &jsonExporter{w: writer, logger: l}, nil
	case "csv":
		return &csvExporter{w: writer, logger: l}, nil
	default:
		if !isStdout {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error { return nil }

// -- JSON --

// jsonExporter writes the record set as an indented JSON array of objects,
// nested collections preserved.
type jsonExporter struct {
	w      io.WriteCloser
	logger *zap.Logger
}

func (e *jsonExporter) Write(records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records as JSON: %w", err)
	}
	e.logger.Info("Wrote JSON export", zap.Int("records", len(records)))
	return nil
}

func (e *jsonExporter) Close() error { return e.w.Close() }

// -- CSV --

// csvExporter flattens records into the documented column scheme: the eight
// summary columns, then per collection a count, a total of the parseable
// item values, and the items joined as "description=value; ..." pairs.
type csvExporter struct {
	w      io.WriteCloser
	logger *zap.Logger
}

// Header returns the CSV column names in their fixed order.
func Header() []string {
	cols := []string{
		"name", "institution", "work_unit", "position",
		"report_date", "report_year", "report_type", "total_assets",
	}
	for _, name := range model.CollectionNames {
		cols = append(cols, name+"_count", name+"_total", name+"_items")
	}
	return cols
}

func (e *csvExporter) Write(records []model.Record) error {
	cw := csv.NewWriter(e.w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range records {
		if err := cw.Write(FlattenRecord(&records[i])); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	e.logger.Info("Wrote CSV export", zap.Int("records", len(records)))
	return nil
}

func (e *csvExporter) Close() error { return e.w.Close() }

// FlattenRecord maps one record onto the CSV column scheme. Empty
// collections produce a zero count, an empty total, and an empty items
// column, never a malformed row.
func FlattenRecord(rec *model.Record) []string {
	row := []string{
		rec.Name,
		rec.Institution,
		rec.WorkUnit,
		rec.Position,
		rec.ReportDate,
		strconv.Itoa(rec.ReportYear),
		rec.ReportType,
		formatNullable(rec.TotalAssets),
	}
	for _, col := range rec.ItemizedCollections() {
		row = append(row, flattenCollection(col.Items)...)
	}
	return row
}

// flattenCollection returns the count, total, and joined-items columns for
// one collection. The total is empty unless at least one item value parsed.
func flattenCollection(items []model.AssetItem) []string {
	var (
		total    int64
		hasTotal bool
		parts    []string
	)
	for _, item := range items {
		parts = append(parts, item.Description+"="+formatNullable(item.Value))
		if item.Value != nil {
			total += *item.Value
			hasTotal = true
		}
	}
	totalCol := ""
	if hasTotal {
		totalCol = strconv.FormatInt(total, 10)
	}
	return []string{
		strconv.Itoa(len(items)),
		totalCol,
		strings.Join(parts, "; "),
	}
}

func formatNullable(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
