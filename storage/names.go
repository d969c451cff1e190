package storage

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"contact-scraper/utils"
)

var nameColumnRegexp = regexp.MustCompile(`(?i)name`)

// maxNamesBytes bounds a downloaded name list.
const maxNamesBytes = 16 << 20

// LoadNames reads a name list from an http(s) URL or a local path.
func LoadNames(ctx context.Context, client *http.Client, src string) ([]string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return fetchNames(ctx, client, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read names %q", src)
	}
	return ParseNames(string(data)), nil
}

func fetchNames(ctx context.Context, client *http.Client, src string) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: names request %q", src)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: fetch names %q", src)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("storage: fetch names %q: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxNamesBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read names body %q", src)
	}
	return ParseNames(string(data)), nil
}

// ParseNames extracts names from CSV text. When the first line has a column
// matching /name/i that column is read from every following line; otherwise
// every non-empty line is a bare name. Lines are parsed independently, so a
// malformed row never swallows its neighbours.
func ParseNames(text string) []string {
	lines := strings.Split(strings.TrimPrefix(text, "\ufeff"), "\n")

	col := -1
	if len(lines) > 0 {
		col = nameColumn(splitRow(lines[0]))
	}

	var out []string
	if col < 0 {
		for _, line := range lines {
			if n := utils.CollapseSpace(line); n != "" {
				out = append(out, n)
			}
		}
		return out
	}

	for _, line := range lines[1:] {
		fields := splitRow(line)
		if col >= len(fields) {
			continue
		}
		if n := utils.CollapseSpace(fields[col]); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// splitRow parses one CSV line. A line the CSV reader rejects (a stray quote
// inside a field) is split on commas as-is.
func splitRow(line string) []string {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, ",")
	}
	return fields
}

func nameColumn(header []string) int {
	for i, h := range header {
		if nameColumnRegexp.MatchString(h) {
			return i
		}
	}
	return -1
}
