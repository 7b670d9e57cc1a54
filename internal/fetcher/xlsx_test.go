package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "drop.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeXLSX(t, "benchmarks", [][]string{
		{"advertiser_id", "channel", "actual"},
		{"7", "search", "500000"},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"7", "search", "500000"}, rows[0])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := writeXLSX(t, "benchmarks", [][]string{{"a"}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "missing"})
	require.Error(t, err)

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "benchmarks"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := writeXLSX(t, "benchmarks", [][]string{{"a"}})
	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
}
