package constants

import "strings"

// Format is the canonical document format for a supported input file.
type Format string

const (
	PDF         Format = "PDF"
	SPREADSHEET Format = "SPREADSHEET"
)

// AllowedExtensions holds the file extensions accepted by the loader.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"xlsx": {},
	"xlsm": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a (possibly dotted, mixed-case) extension to its
// canonical format. Returns "" for unsupported extensions.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "xlsx", "xlsm":
		return SPREADSHEET
	default:
		return ""
	}
}
