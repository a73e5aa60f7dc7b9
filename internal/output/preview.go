package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"invoicex/internal/mapping"
)

// Preview prints one record to w for human verification: aligned
// "field: value" lines in mapping order, missing fields marked.
func Preview(w io.Writer, rec *mapping.Record) {
	if rec.SourcePath != "" {
		fmt.Fprintf(w, "── %s\n", filepath.Base(rec.SourcePath))
	}

	width := 0
	for _, name := range rec.Mapping().Names() {
		if len(name) > width {
			width = len(name)
		}
	}
	for _, f := range rec.Mapping().Fields() {
		v, ok := rec.Get(f.Name)
		if !ok {
			v = "(missing)"
		}
		fmt.Fprintf(w, "  %s:%s %s\n", f.Name, strings.Repeat(" ", width-len(f.Name)), v)
	}
}
