package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText concatenates page text in page order. Pages are processed
// strictly sequentially; one document is in flight at a time.
func extractPDFText(ctx context.Context, raw []byte) (string, int, error) {
	reader := bytes.NewReader(raw)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	numPages := pdfReader.NumPage()
	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", numPages, err
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", numPages, fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), numPages, nil
}
