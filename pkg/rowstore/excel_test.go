package rowstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelReadMissingWorkbook(t *testing.T) {
	e, err := NewExcel(filepath.Join(t.TempDir(), "data", "promo.xlsx"), "descuentos")
	require.NoError(t, err)

	rows, err := e.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExcelAppendThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promo.xlsx")
	e, err := NewExcel(path, "descuentos")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.Append(ctx, []string{"Ana", "Lopez", "88887777", "Managua", "OMW-1234", "2024-10-21 09:30:00"}))
	require.NoError(t, e.Append(ctx, []string{"José", "García", "81112222", "León", "OMW-0042", "2024-10-21 10:00:00"}))

	rows, err := e.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Ana", "Lopez", "88887777", "Managua", "OMW-1234", "2024-10-21 09:30:00"},
		{"José", "García", "81112222", "León", "OMW-0042", "2024-10-21 10:00:00"},
	}, rows)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"descuentos"}, f.GetSheetList())
}

func TestExcelAddsSheetToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promo.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(DEFAULT_SHEET_NAME, "A1", "otra cosa"))
	require.NoError(t, f.SaveAs(path))

	e, err := NewExcel(path, "descuentos")
	require.NoError(t, err)

	rows, err := e.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, e.Append(context.Background(), []string{"Ana", "Lopez"}))
	rows, err = e.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ana", "Lopez"}}, rows)
}

func TestNewExcelRequiresPath(t *testing.T) {
	_, err := NewExcel("", "descuentos")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
