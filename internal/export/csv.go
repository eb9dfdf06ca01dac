// Package export renders result tables as CSV, both for per-report
// downloads and for the administrative full-dataset export to GCS.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// WriteCSV writes table to w with a header row in column order. Nil values
// become empty cells; timestamps are RFC3339.
func WriteCSV(w io.Writer, table *warehouse.ResultTable) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = formatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case civil.Date:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
