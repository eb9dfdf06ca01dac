package warehouse

// Row is one result row keyed by column name. Values are the scalar types
// the warehouse driver produces: string, int64, float64, bool, time.Time,
// civil.Date or nil.
type Row map[string]any

// ResultTable is the tabular output of one query. Rows preserve the order
// the warehouse returned them in; Columns preserve select-list order.
// A ResultTable is never mutated after creation.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the table holds no rows.
func (t *ResultTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// NumRows returns the row count, tolerating a nil receiver.
func (t *ResultTable) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// FirstInt reads an integer from the first row, the common shape of
// single-value metric queries like total_users.
func (t *ResultTable) FirstInt(column string) (int64, bool) {
	if t.Empty() {
		return 0, false
	}
	switch v := t.Rows[0][column].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// FirstFloat reads a numeric value from the first row.
func (t *ResultTable) FirstFloat(column string) (float64, bool) {
	if t.Empty() {
		return 0, false
	}
	switch v := t.Rows[0][column].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
