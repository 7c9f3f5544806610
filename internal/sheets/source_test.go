package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheetAPI struct {
	rows        [][]interface{}
	readErr     error
	updateErr   error
	gotRange    string
	gotValues   [][]interface{}
	updateCalls int
}

func (f *fakeSheetAPI) ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func (f *fakeSheetAPI) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error {
	f.updateCalls++
	f.gotRange = range_
	f.gotValues = values
	return f.updateErr
}

func skipStatuses() []string { return []string{"Ready", "Invalid"} }

func TestPendingParsesRows(t *testing.T) {
	api := &fakeSheetAPI{rows: [][]interface{}{
		{"Status", "Gameplay URL"}, // header row has no URL, skipped
		{"Pending", "https://a.itch.io/one"},
		{"Ready", "https://a.itch.io/two"},
		{"", "https://a.itch.io/three"},
		{"Pending", ""},
		{"Pending"}, // short row
	}}
	source := newSource(api, "sheet-id", "Submissions!A1", skipStatuses())

	pending, err := source.Pending(context.Background())
	require.NoError(t, err)

	require.Len(t, pending, 2)
	assert.Equal(t, "2", pending[0].ID)
	assert.Equal(t, "https://a.itch.io/one", pending[0].URL)
	assert.Equal(t, "Pending", pending[0].Status)
	assert.Equal(t, "4", pending[1].ID)
	assert.Equal(t, "", pending[1].Status)
}

func TestPendingPropagatesReadFailure(t *testing.T) {
	api := &fakeSheetAPI{readErr: errors.New("permission denied")}
	source := newSource(api, "sheet-id", "Submissions!A1", skipStatuses())

	_, err := source.Pending(context.Background())
	assert.ErrorContains(t, err, "failed to read sheet")
}

func TestUpdateStatusWritesStatusCell(t *testing.T) {
	api := &fakeSheetAPI{}
	source := newSource(api, "sheet-id", "Submissions!A1", skipStatuses())

	err := source.UpdateStatus(context.Background(), "7", "Ready")
	require.NoError(t, err)

	assert.Equal(t, 1, api.updateCalls)
	assert.Equal(t, "Submissions!A7", api.gotRange)
	assert.Equal(t, [][]interface{}{{"Ready"}}, api.gotValues)
}

func TestUpdateStatusRejectsBadIdentifier(t *testing.T) {
	api := &fakeSheetAPI{}
	source := newSource(api, "sheet-id", "Submissions!A1", skipStatuses())

	err := source.UpdateStatus(context.Background(), "rec1", "Ready")
	assert.ErrorContains(t, err, "invalid row identifier")
	assert.Zero(t, api.updateCalls)
}

func TestExtractStringField(t *testing.T) {
	row := []interface{}{" Pending ", "https://a.itch.io/one", nil, 42}

	assert.Equal(t, "Pending", extractStringField(row, 0))
	assert.Equal(t, "https://a.itch.io/one", extractStringField(row, 1))
	assert.Equal(t, "", extractStringField(row, 2))
	assert.Equal(t, "42", extractStringField(row, 3))
	assert.Equal(t, "", extractStringField(row, 9))
}
