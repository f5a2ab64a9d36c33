package rowstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

const DEFAULT_SHEET_NAME = "Sheet1"

// Excel keeps rows in a local .xlsx workbook. Handy for running the promo
// without a Google account; the file is rewritten on every append.
type Excel struct {
	path  string
	sheet string
	mu    sync.Mutex
}

func NewExcel(path, sheet string) (*Excel, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: xlsx path is empty", ErrNotConfigured)
	}
	if sheet == "" {
		sheet = DEFAULT_SHEET_NAME
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("NewExcel failed: %w", err)
	}
	return &Excel{path: path, sheet: sheet}, nil
}

func (e *Excel) ReadAll(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return [][]string{}, nil
	}
	defer e.close(f)

	if f.GetSheetIndex(e.sheet) == -1 {
		return [][]string{}, nil
	}

	rows, err := f.GetRows(e.sheet)
	if err != nil {
		return nil, fmt.Errorf("f.GetRows failed: %w", err)
	}
	return rows, nil
}

func (e *Excel) Append(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open()
	if err != nil {
		return err
	}
	if f == nil {
		f = excelize.NewFile()
		if e.sheet != DEFAULT_SHEET_NAME {
			f.SetActiveSheet(f.NewSheet(e.sheet))
			f.DeleteSheet(DEFAULT_SHEET_NAME)
		}
	} else if f.GetSheetIndex(e.sheet) == -1 {
		f.NewSheet(e.sheet)
	}
	defer e.close(f)

	rows, err := f.GetRows(e.sheet)
	if err != nil {
		return fmt.Errorf("f.GetRows failed: %w", err)
	}

	axis, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("excelize.CoordinatesToCellName failed: %w", err)
	}

	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	if err := f.SetSheetRow(e.sheet, axis, &cells); err != nil {
		return fmt.Errorf("f.SetSheetRow failed: %w", err)
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("f.SaveAs failed: %w", err)
	}
	return nil
}

// open returns nil without error when the workbook does not exist yet.
func (e *Excel) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("excelize.OpenFile failed: %w", err)
	}
	return f, nil
}

func (e *Excel) close(f *excelize.File) {
	// Close only drops temp files of the reader; the workbook is already saved.
	_ = f.Close()
}
