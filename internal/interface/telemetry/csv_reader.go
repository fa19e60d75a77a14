package telemetry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fuelrefund-service/internal/domain/entity"
	apperrors "fuelrefund-service/pkg/errors"
)

// CSVReader reads delimited text exports with a header row
type CSVReader struct{}

// NewCSVReader creates a new CSV reader
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// CanHandle accepts .csv and .txt files
func (r *CSVReader) CanHandle(filename string) bool {
	return hasExtension(filename, ".csv", ".txt")
}

// detectDelimiter picks the most frequent of ';', ',' and tab in the header line
func detectDelimiter(data []byte) rune {
	firstLine := string(data)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := strings.Count(firstLine, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Read parses the whole input
func (r *CSVReader) Read(ctx context.Context, in io.Reader) ([]entity.TelemetryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, apperrors.NewInputError(0, "file", fmt.Sprintf("cannot read input: %v", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewInputError(0, "file", "empty input")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.NewInputError(0, "header", fmt.Sprintf("cannot read header: %v", err))
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []entity.TelemetryRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewInputError(0, "file", fmt.Sprintf("malformed input: %v", err))
		}
		if blank(record) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, columns.toRow(line, record))
	}
	return rows, nil
}
