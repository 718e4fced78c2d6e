package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Exporter publishes a generated batch of access codes for offline
// distribution (e.g. handing printed codes to a school). Export returns the
// location the batch was written to.
type Exporter interface {
	Export(ctx context.Context, batchName string, codes []string) (string, error)
}

// renderCSV renders a code batch as a single-column CSV with a header row.
func renderCSV(codes []string) []byte {
	var b strings.Builder
	b.WriteString("code\n")
	for _, code := range codes {
		b.WriteString(code)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// batchKey derives a stable object name for a batch.
func batchKey(prefix, batchName string) string {
	return fmt.Sprintf("%s%s-%s.csv", prefix, batchName, time.Now().UTC().Format("20060102T150405Z"))
}

// fileExporter implements Exporter against the local file system. It is the
// fallback when S3 is disabled or unreachable.
type fileExporter struct {
	dir    string
	logger zerolog.Logger
}

// NewFileExporter creates an exporter that writes CSV files under dir.
func NewFileExporter(dir string, logger zerolog.Logger) Exporter {
	return &fileExporter{
		dir:    dir,
		logger: logger.With().Str("component", "file-exporter").Logger(),
	}
}

// Export writes the batch as a CSV file and returns its path.
func (e *fileExporter) Export(ctx context.Context, batchName string, codes []string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", e.dir, err)
	}

	path := filepath.Join(e.dir, batchKey("", batchName))
	if err := os.WriteFile(path, renderCSV(codes), 0o644); err != nil {
		e.logger.Error().Err(err).Str("path", path).Msg("failed to write export file")
		return "", fmt.Errorf("failed to write export file %s: %w", path, err)
	}

	e.logger.Info().
		Str("path", path).
		Int("code_count", len(codes)).
		Msg("code batch exported to file")

	return path, nil
}

// fallbackExporter tries S3 first, then falls back to the local file system.
type fallbackExporter struct {
	s3Exporter   Exporter
	fileExporter Exporter
	logger       zerolog.Logger
}

// NewFallbackExporter creates an exporter that tries S3 first, then falls back
// to the local file system. If s3Exporter is nil, only the file exporter runs.
func NewFallbackExporter(s3Exporter, fileExporter Exporter, logger zerolog.Logger) Exporter {
	return &fallbackExporter{
		s3Exporter:   s3Exporter,
		fileExporter: fileExporter,
		logger:       logger.With().Str("component", "fallback-exporter").Logger(),
	}
}

// Export attempts the S3 exporter first and falls back to local files.
func (e *fallbackExporter) Export(ctx context.Context, batchName string, codes []string) (string, error) {
	if e.s3Exporter != nil {
		location, err := e.s3Exporter.Export(ctx, batchName, codes)
		if err == nil {
			return location, nil
		}

		e.logger.Warn().
			Err(err).
			Str("batch", batchName).
			Msg("failed to export to S3, falling back to local file system")
	}

	return e.fileExporter.Export(ctx, batchName, codes)
}
