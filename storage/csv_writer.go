package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Tabular headers. The import header must match the downstream importer exactly.
var (
	RosterHeader   = []string{"name", "city", "source"}
	ContactsHeader = []string{"name", "phone", "email", "sourceUrl"}
	ImportHeader   = []string{"EMAIL", "SMS", "FIRSTNAME", "LASTNAME", "SOURCEURL"}
)

// EscapeCSV quotes a field containing a comma, double quote or newline and
// doubles its inner quotes. Other fields are returned unchanged.
func EscapeCSV(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// RenderCSV renders a header and rows as newline-terminated CSV.
func RenderCSV(header []string, rows [][]string) string {
	var b strings.Builder
	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeCSV(f))
		}
		b.WriteByte('\n')
	}

	writeLine(header)
	for _, r := range rows {
		writeLine(r)
	}
	return b.String()
}

// writeFile creates (or truncates) path, creating intermediate directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "storage: create output dir for %q", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "storage: write %q", path)
	}
	return nil
}
