package telemetry

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
	"fuelrefund-service/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads the first sheet of a spreadsheet export
type XLSXReader struct{}

// NewXLSXReader creates a new spreadsheet reader
func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

// CanHandle accepts .xlsx files
func (r *XLSXReader) CanHandle(filename string) bool {
	return hasExtension(filename, ".xlsx")
}

// Read parses the first sheet. Cells are read raw so that date cells arrive
// as serial numbers instead of locale-formatted text.
func (r *XLSXReader) Read(ctx context.Context, in io.Reader) ([]entity.TelemetryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, apperrors.NewInputError(0, "file", fmt.Sprintf("cannot open spreadsheet: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInputError(0, "file", "spreadsheet has no sheets")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewInputError(0, "file", fmt.Sprintf("cannot read sheet %s: %v", sheets[0], err))
	}
	if len(records) == 0 {
		return nil, apperrors.NewInputError(0, "file", "empty input")
	}

	columns, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	var rows []entity.TelemetryRow
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := columns.toRow(i+2, record)
		row.Date = serialToDate(row.Date)
		rows = append(rows, row)
	}
	return rows, nil
}

// serialToDate turns a spreadsheet date serial into an ISO date; text dates
// pass through unchanged
func serialToDate(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format(utils.DATE_KEY_LAYOUT)
}
