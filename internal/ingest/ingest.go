// Package ingest loads raw restaurant review records from CSV files.
//
// Ingestion is deliberately dumb: it validates the header schema, drops
// garbage columns, and hands every row onward as raw strings. All lenient
// per-field parsing (ratings, timestamps, metadata) happens later in the
// normalize package, so a single malformed row never aborts a batch here.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrSchema indicates the input is missing one or more required columns.
// This is fatal for the whole batch; there is no row-level recovery from
// a broken header.
var ErrSchema = errors.New("input schema error")

// requiredColumns must all be present (case-insensitive) in the CSV header.
var requiredColumns = []string{"restaurant", "reviewer", "review", "rating", "time"}

// Record is one raw review row. Every field is the untouched cell text;
// optional columns that were absent from the file are empty strings.
type Record struct {
	Restaurant string
	Reviewer   string
	Review     string
	Rating     string
	Metadata   string
	Time       string
	Pictures   string
}

// Load reads a reviews CSV from path and returns its rows as raw records.
//
// Header names are trimmed and matched case-insensitively. Columns whose
// name starts with "unnamed" (spreadsheet export artifacts) are ignored.
// A header missing any of the required columns {Restaurant, Reviewer,
// Review, Rating, Time} fails with ErrSchema.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reviews file: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// Read parses reviews CSV content from r. See Load for schema rules.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are tolerated; short rows read as empty cells

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		records = append(records, Record{
			Restaurant: cell(row, col(cols, "restaurant")),
			Reviewer:   cell(row, col(cols, "reviewer")),
			Review:     cell(row, col(cols, "review")),
			Rating:     cell(row, col(cols, "rating")),
			Metadata:   cell(row, col(cols, "metadata")),
			Time:       cell(row, col(cols, "time")),
			Pictures:   cell(row, col(cols, "pictures")),
		})
	}

	slog.Debug("Loaded raw reviews", "rows", len(records), "columns", len(cols))
	return records, nil
}

// mapColumns resolves header names to column positions and enforces the
// required schema.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || strings.HasPrefix(name, "unnamed") {
			continue
		}
		if _, dup := cols[name]; dup {
			continue // first occurrence wins
		}
		cols[name] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns %v", ErrSchema, missing)
	}
	return cols, nil
}

// col returns the position of an optional column, or -1 when absent.
func col(cols map[string]int, name string) int {
	if idx, ok := cols[name]; ok {
		return idx
	}
	return -1
}

// cell returns the idx-th field of row, or "" when the column is absent or
// the row is too short.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
