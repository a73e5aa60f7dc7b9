package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"invoicex/constants"
	"invoicex/internal/common"
)

// Document is one invoice file after loading: immutable raw text plus enough
// metadata to log, deduplicate, and report on it.
type Document struct {
	Path        string
	Format      constants.Format
	Text        string
	Pages       int // PDF pages or spreadsheet sheets
	ContentHash string
	Duration    time.Duration
}

// Loader reads invoice files from disk and extracts their raw text.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the file at path and extracts its text. The extension decides
// the strategy; unsupported extensions fail before any file or network I/O.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))

	format := constants.MapExtToFormat(ext)
	if format == "" {
		l.logger.Error("loader.unsupported_extension", "path", path, "ext", ext)
		return nil, common.UnsupportedFormatError(fmt.Sprintf("extension %q is not supported", ext))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("loader.read_error", "path", path, "error", err)
		return nil, common.ReadError("read "+path, err)
	}

	sum := sha256.Sum256(raw)

	var text string
	var pages int
	switch format {
	case constants.PDF:
		text, pages, err = extractPDFText(ctx, raw)
	case constants.SPREADSHEET:
		text, pages, err = extractSpreadsheetText(raw)
	}
	if err != nil {
		l.logger.Error("loader.extract_error", "path", path, "format", string(format), "error", err)
		return nil, common.ReadError("extract text from "+path, err)
	}

	// A non-empty file must never silently produce empty content.
	if strings.TrimSpace(text) == "" {
		l.logger.Error("loader.empty_text", "path", path, "format", string(format), "bytes", len(raw))
		return nil, common.ReadError(fmt.Sprintf("no text extracted from %s (%d bytes)", path, len(raw)), nil)
	}

	doc := &Document{
		Path:        path,
		Format:      format,
		Text:        text,
		Pages:       pages,
		ContentHash: hex.EncodeToString(sum[:]),
		Duration:    time.Since(start),
	}
	l.logger.Info("loader.ok",
		"path", path,
		"format", string(format),
		"pages", pages,
		"text_bytes", len(text),
		"elapsed_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}
