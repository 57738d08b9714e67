// File: internal/model/record_test.go
package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/lhkpn-cli/internal/model"
)

func TestParseRupiah(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int64
	}{
		{"dotted grouping with prefix", "Rp. 4.017.616.997", 4017616997},
		{"prefix without dot", "Rp 1.234.567", 1234567},
		{"decimal comma truncated", "Rp. 1.234.567,89", 1234567},
		{"bare number", " 250.000 ", 250000},
		{"zero", "Rp. 0", 0},
		{"negative", "-Rp 5.000", -5000},
		{"negative after prefix", "Rp -5.000", -5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := model.ParseRupiah(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRupiahRejectsNonNumeric(t *testing.T) {
	for _, input := range []string{"", "Rp.", "tidak ada data", "---"} {
		_, err := model.ParseRupiah(input)
		assert.Error(t, err, "input %q should not parse", input)
	}
}

func TestRupiahOrNil(t *testing.T) {
	require.Nil(t, model.RupiahOrNil("n/a"))

	got := model.RupiahOrNil("Rp. 10.000")
	require.NotNil(t, got)
	assert.Equal(t, int64(10000), *got)
}

func TestYearFrom(t *testing.T) {
	assert.Equal(t, 2023, model.YearFrom("31/12/2023"))
	assert.Equal(t, 2019, model.YearFrom("2019"))
	// The last four-digit group wins.
	assert.Equal(t, 2020, model.YearFrom("07/04/2021 (2020)"))
	assert.Equal(t, 0, model.YearFrom("--"))
	assert.Equal(t, 0, model.YearFrom(""))
}

func TestNewAllocatesCollections(t *testing.T) {
	rec := model.New()
	cols := rec.ItemizedCollections()
	require.Len(t, cols, len(model.CollectionNames))
	for i, col := range cols {
		assert.Equal(t, model.CollectionNames[i], col.Name)
		assert.NotNil(t, col.Items)
		assert.Empty(t, col.Items)
	}
}

func TestSetCollection(t *testing.T) {
	rec := model.New()
	items := []model.AssetItem{{Description: "Tanah di Bogor"}}
	rec.SetCollection("land_and_buildings", items)
	assert.Equal(t, items, rec.LandAndBuildings)

	// A nil replacement keeps the collection non-nil for serialization.
	rec.SetCollection("debts", nil)
	assert.NotNil(t, rec.Debts)
	assert.Empty(t, rec.Debts)
}

func TestRecordKey(t *testing.T) {
	rec := model.New()
	rec.Name = "BUDI SANTOSO"
	rec.ReportYear = 2023
	assert.Equal(t, "BUDI SANTOSO/2023", rec.Key())
}
