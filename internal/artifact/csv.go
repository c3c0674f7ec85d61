package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// SaveCSV serializes rows to CSV and saves the result through Save. Columns
// are the union of keys across all rows, sorted for a stable layout.
func (s *Saver) SaveCSV(name string, rows []domain.Record) (string, error) {
	data, err := MarshalCSV(rows)
	if err != nil {
		return "", err
	}
	return s.Save(name, "text/csv", data)
}

// MarshalCSV renders rows as CSV bytes with a header line.
func MarshalCSV(rows []domain.Record) ([]byte, error) {
	columns := columnSet(rows)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func columnSet(rows []domain.Record) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing ".0" so IDs and counts survive a spreadsheet import.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
