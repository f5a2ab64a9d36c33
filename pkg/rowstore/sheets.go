package rowstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"

	// Characters that make USER_ENTERED input a formula.
	formulaLeads = "=+-@"
)

// Sheets keeps rows in a Google spreadsheet range such as "descuentos!A:F".
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
}

// SheetsCredentials turns the service-account JSON blob into a client option.
// A blank or malformed blob is a configuration error.
func SheetsCredentials(blob string) (option.ClientOption, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, fmt.Errorf("%w: GOOGLE_CREDENTIALS is empty", ErrNotConfigured)
	}
	if !json.Valid([]byte(blob)) {
		return nil, fmt.Errorf("%w: GOOGLE_CREDENTIALS is not valid JSON", ErrNotConfigured)
	}
	return option.WithCredentialsJSON([]byte(blob)), nil
}

func NewSheets(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" || rng == "" {
		return nil, fmt.Errorf("%w: spreadsheet id and range are required", ErrNotConfigured)
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService failed: %w", err)
	}

	return &Sheets{values: srv.Spreadsheets.Values, spreadsheetID: spreadsheetID, rng: rng}, nil
}

func (s *Sheets) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("values.Get failed: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, v := range resp.Values {
		row := make([]string, len(v))
		for i, c := range v {
			if str, ok := c.(string); ok {
				row[i] = str
				continue
			}
			row[i] = fmt.Sprint(c)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Sheets) Append(ctx context.Context, row []string) error {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = literal(c)
	}

	_, err := s.values.Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("values.Append failed: %w", err)
	}
	return nil
}

// literal keeps a cell that looks like a formula as plain text. The leading
// quote is not part of the stored value.
func literal(cell string) string {
	if cell != "" && strings.ContainsRune(formulaLeads, rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
