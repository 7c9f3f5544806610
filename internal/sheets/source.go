package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"game_validator/internal/validator"

	"github.com/rs/zerolog/log"
)

// Sheet layout: column A holds the status, column B the gameplay URL.
const (
	statusColumn = 0
	urlColumn    = 1
)

type sheetAPI interface {
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
}

// Source exposes one spreadsheet as the validator's record source. Row
// numbers double as record identifiers; they are stable within a run
// because the sheet is read once up front.
type Source struct {
	api           sheetAPI
	spreadsheetID string
	sheetName     string
	readRange     string
	skip          map[string]bool
}

func NewSource(client *Client, spreadsheetID, sheetRange string, skipStatuses []string) *Source {
	return newSource(client, spreadsheetID, sheetRange, skipStatuses)
}

func newSource(api sheetAPI, spreadsheetID, sheetRange string, skipStatuses []string) *Source {
	sheetName := strings.Split(sheetRange, "!")[0]
	skip := make(map[string]bool, len(skipStatuses))
	for _, status := range skipStatuses {
		skip[status] = true
	}
	return &Source{
		api:           api,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		// Extend range to Z1000 for reading all data
		readRange: sheetName + "!A1:Z1000",
		skip:      skip,
	}
}

// Pending reads the sheet and returns the rows that carry a gameplay URL
// and whose status is not already final.
func (s *Source) Pending(ctx context.Context) ([]validator.Submission, error) {
	rows, err := s.api.ReadSheet(ctx, s.spreadsheetID, s.readRange)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	var pending []validator.Submission
	for i, row := range rows {
		sub, ok := s.parseRow(row, i+1)
		if ok {
			pending = append(pending, sub)
		}
	}

	log.Info().
		Int("total", len(rows)).
		Int("pending", len(pending)).
		Msg("Fetched submissions to validate")

	return pending, nil
}

// parseRow turns one raw sheet row into a submission. Rows without an
// http(s) URL in the URL column (headers, blanks, notes) are skipped.
func (s *Source) parseRow(row []interface{}, rowIndex int) (validator.Submission, bool) {
	gameURL := extractStringField(row, urlColumn)
	status := extractStringField(row, statusColumn)

	if !strings.HasPrefix(gameURL, "http://") && !strings.HasPrefix(gameURL, "https://") {
		log.Debug().
			Int("row", rowIndex).
			Msg("Skipping row without gameplay URL")
		return validator.Submission{}, false
	}
	if s.skip[status] {
		log.Debug().
			Int("row", rowIndex).
			Str("status", status).
			Msg("Skipping already processed row")
		return validator.Submission{}, false
	}

	return validator.Submission{
		ID:     strconv.Itoa(rowIndex),
		URL:    gameURL,
		Status: status,
	}, true
}

// UpdateStatus writes the status cell of one row.
func (s *Source) UpdateStatus(ctx context.Context, id, status string) error {
	rowIndex, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid row identifier %q: %w", id, err)
	}

	cellRange := fmt.Sprintf("%s!A%d", s.sheetName, rowIndex)
	if err := s.api.UpdateRange(ctx, s.spreadsheetID, cellRange, [][]interface{}{{status}}); err != nil {
		return fmt.Errorf("failed to update status cell: %w", err)
	}
	return nil
}

// extractStringField safely extracts a string field from a row at the given index
func extractStringField(row []interface{}, index int) string {
	if len(row) > index && row[index] != nil {
		return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
	}
	return ""
}
