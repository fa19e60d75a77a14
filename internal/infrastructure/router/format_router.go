package router

import (
	"fmt"

	"fuelrefund-service/internal/usecase"
	"fuelrefund-service/pkg/logger"
)

// FormatRouter routes telemetry files to the reader that understands them
type FormatRouter struct {
	readers []usecase.TelemetryReader
	logger  logger.Logger
}

// NewFormatRouter creates a new format router
func NewFormatRouter(logger logger.Logger) *FormatRouter {
	return &FormatRouter{
		readers: make([]usecase.TelemetryReader, 0),
		logger:  logger,
	}
}

// Register registers a reader; earlier registrations win
func (r *FormatRouter) Register(reader usecase.TelemetryReader) {
	r.readers = append(r.readers, reader)
	r.logger.Info("Registered telemetry reader", "reader", fmt.Sprintf("%T", reader))
}

// GetReader returns the first reader accepting the file name
func (r *FormatRouter) GetReader(filename string) usecase.TelemetryReader {
	for _, reader := range r.readers {
		if reader.CanHandle(filename) {
			return reader
		}
	}
	r.logger.Debug("No telemetry reader for file", "file", filename)
	return nil
}
