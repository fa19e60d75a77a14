package usecase

import (
	"context"
	"io"

	"fuelrefund-service/internal/domain/entity"
)

// TelemetryReader defines the interface for telemetry file readers
type TelemetryReader interface {
	// CanHandle determines if this reader understands the given file name
	CanHandle(filename string) bool

	// Read parses the whole input. An error means the input could not be
	// read at all; row-level problems are left to the matcher.
	Read(ctx context.Context, r io.Reader) ([]entity.TelemetryRow, error)
}

// FormatRouter routes telemetry files to the appropriate reader
type FormatRouter interface {
	// Register registers a reader
	Register(reader TelemetryReader)

	// GetReader returns the reader for a file name, or nil
	GetReader(filename string) TelemetryReader
}
