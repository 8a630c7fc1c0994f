package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/verawat1234/tchat-perfbench/internal/analyzer"
	"github.com/verawat1234/tchat-perfbench/internal/config"
)

var formatExtensions = map[string]string{
	config.FormatJSON:       "json",
	config.FormatTable:      "txt",
	config.FormatHTML:       "html",
	config.FormatCSV:        "csv",
	config.FormatPrometheus: "prom",
}

// Writer persists rendered reports to an output directory, one file per
// requested format.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}
}

// Write renders and saves the report in every requested format. The first
// failure aborts the save and is returned; files already written remain.
func (w *Writer) Write(r *analyzer.PerformanceReport, formats []string) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return nil, fmt.Errorf("report: create output dir %s: %w", w.dir, err)
	}

	written := make([]string, 0, len(formats))
	for _, format := range formats {
		data, err := Generate(r, format)
		if err != nil {
			return written, err
		}

		path := filepath.Join(w.dir, fileName(r, format))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return written, fmt.Errorf("report: write %s: %w", path, err)
		}

		w.logger.Info("report written",
			zap.String("format", format),
			zap.String("path", path),
			zap.Int("bytes", len(data)))
		written = append(written, path)
	}
	return written, nil
}

// fileName builds <session>-<id8>.<ext>, sanitized for the filesystem.
func fileName(r *analyzer.PerformanceReport, format string) string {
	ext, ok := formatExtensions[format]
	if !ok {
		ext = format
	}
	id := r.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	name := sanitize(r.SessionName)
	if name == "" {
		name = "perfbench"
	}
	return fmt.Sprintf("%s-%s.%s", name, id, ext)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '/', r == '.':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
