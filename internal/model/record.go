// File: internal/model/record.go
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AssetItem is one itemized entry inside a disclosure category, as rendered
// in the portal's comparison modal. Value is nil when the portal's currency
// text could not be parsed.
type AssetItem struct {
	Description string `json:"description"`
	Value       *int64 `json:"value"`
}

// Record is a single asset-disclosure report for one state official in one
// reporting year. Records are immutable once extracted; identity is the
// subject name plus the report year (the portal exposes no stronger key).
type Record struct {
	Name        string `json:"name"`
	Institution string `json:"institution"`
	WorkUnit    string `json:"work_unit"`
	Position    string `json:"position"`
	ReportDate  string `json:"report_date"`
	ReportYear  int    `json:"report_year"`
	ReportType  string `json:"report_type"`
	TotalAssets *int64 `json:"total_assets"`

	LandAndBuildings []AssetItem `json:"land_and_buildings"`
	Vehicles         []AssetItem `json:"vehicles"`
	MovableAssets    []AssetItem `json:"movable_assets"`
	Securities       []AssetItem `json:"securities"`
	Cash             []AssetItem `json:"cash"`
	OtherAssets      []AssetItem `json:"other_assets"`
	Debts            []AssetItem `json:"debts"`
}

// New returns a Record with all itemized collections allocated, so exports
// always see lists rather than JSON nulls.
func New() *Record {
	return &Record{
		LandAndBuildings: []AssetItem{},
		Vehicles:         []AssetItem{},
		MovableAssets:    []AssetItem{},
		Securities:       []AssetItem{},
		Cash:             []AssetItem{},
		OtherAssets:      []AssetItem{},
		Debts:            []AssetItem{},
	}
}

// Key returns the record's identity: subject name + report year.
func (r *Record) Key() string {
	return fmt.Sprintf("%s/%d", r.Name, r.ReportYear)
}

// ItemCollection pairs a collection's canonical name with its items.
type ItemCollection struct {
	Name  string
	Items []AssetItem
}

// CollectionNames lists the itemized collections in their canonical order.
// The JSON field order, the CSV column scheme, and the modal parser all
// follow this order.
var CollectionNames = []string{
	"land_and_buildings",
	"vehicles",
	"movable_assets",
	"securities",
	"cash",
	"other_assets",
	"debts",
}

// ItemizedCollections returns the seven collections in canonical order.
func (r *Record) ItemizedCollections() []ItemCollection {
	return []ItemCollection{
		{Name: "land_and_buildings", Items: r.LandAndBuildings},
		{Name: "vehicles", Items: r.Vehicles},
		{Name: "movable_assets", Items: r.MovableAssets},
		{Name: "securities", Items: r.Securities},
		{Name: "cash", Items: r.Cash},
		{Name: "other_assets", Items: r.OtherAssets},
		{Name: "debts", Items: r.Debts},
	}
}

// SetCollection replaces the named collection. Unknown names are ignored;
// the selector table is validated at startup, so an unknown name here is a
// programming error rather than portal drift.
func (r *Record) SetCollection(name string, items []AssetItem) {
	if items == nil {
		items = []AssetItem{}
	}
	switch name {
	case "land_and_buildings":
		r.LandAndBuildings = items
	case "vehicles":
		r.Vehicles = items
	case "movable_assets":
		r.MovableAssets = items
	case "securities":
		r.Securities = items
	case "cash":
		r.Cash = items
	case "other_assets":
		r.OtherAssets = items
	case "debts":
		r.Debts = items
	}
}

var yearPattern = regexp.MustCompile(`(\d{4})`)

// YearFrom extracts the report year from a portal date cell such as
// "31/12/2023" or "2023". The last four-digit group wins. Returns 0 when no
// year is present.
func YearFrom(reportDate string) int {
	matches := yearPattern.FindAllString(reportDate, -1)
	if len(matches) == 0 {
		return 0
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0
	}
	return year
}

// ParseRupiah converts localized Indonesian currency text such as
// "Rp. 4.017.616.997" or "Rp 1.234.567,00" into integer rupiah. The dot is
// the thousands separator and the comma introduces a fractional part, which
// is truncated. An error is returned when no digits survive cleaning.
func ParseRupiah(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "Rp.")
	cleaned = strings.TrimPrefix(cleaned, "Rp")
	cleaned = strings.TrimSpace(cleaned)

	negative := strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "(")

	// Drop the fractional part, if any.
	if idx := strings.Index(cleaned, ","); idx >= 0 {
		cleaned = cleaned[:idx]
	}

	var digits strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no numeric content in currency text %q", s)
	}

	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("currency text %q overflows: %w", s, err)
	}
	if negative {
		value = -value
	}
	return value, nil
}

// RupiahOrNil parses currency text, returning nil instead of an error so
// field-local parse failures degrade to a null value per the error policy.
func RupiahOrNil(s string) *int64 {
	value, err := ParseRupiah(s)
	if err != nil {
		return nil
	}
	return &value
}
