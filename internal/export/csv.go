// Package export turns a result set into files and printable renderings.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// ErrNoResult is returned when there is nothing to export.
var ErrNoResult = errors.New("export: no result to export")

// CSV renders rs as comma-separated text. The header comes from the first
// row; every row is written in header order with missing keys left empty.
// Values are not quoted or escaped, so embedded commas or newlines shift
// columns. Lines are joined with "\n" and there is no trailing newline.
func CSV(rs model.ResultSet) (string, error) {
	if len(rs) == 0 {
		return "", ErrNoResult
	}

	headers := rs.Columns()
	lines := make([]string, 0, len(rs)+1)
	lines = append(lines, strings.Join(headers, ","))

	cells := make([]string, len(headers))
	for _, row := range rs {
		for i, h := range headers {
			v, _ := row.Value(h)
			cells[i] = model.FormatValue(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n"), nil
}

// WriteCSV writes rs to dir/predictions.csv and returns the written path.
func WriteCSV(dir string, rs model.ResultSet) (string, error) {
	content, err := CSV(rs)
	if err != nil {
		return "", err
	}
	path, err := targetPath(dir, model.DefaultExportName)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}

func targetPath(dir, name string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}
