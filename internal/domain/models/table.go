package models

import (
	"fmt"
	"math"
	"time"
)

// ColumnKind classifies a column's value domain. The kind is decided once
// when a table is built (CSV decode or feature construction) and carried
// with the column so later stages never re-infer types.
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindTime        ColumnKind = "time"
)

// Column holds one named column. Exactly one of Nums/Cats/Times is
// populated depending on Kind; Null marks missing cells.
type Column struct {
	Name  string
	Kind  ColumnKind
	Nums  []float64
	Cats  []string
	Times []time.Time
	Null  []bool
}

// NewNumericColumn builds a numeric column. NaN values are recorded as nulls.
func NewNumericColumn(name string, vals []float64) *Column {
	null := make([]bool, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			null[i] = true
		}
	}
	return &Column{Name: name, Kind: KindNumeric, Nums: vals, Null: null}
}

// NewCategoricalColumn builds a categorical column. Empty strings are nulls.
func NewCategoricalColumn(name string, vals []string) *Column {
	null := make([]bool, len(vals))
	for i, v := range vals {
		if v == "" {
			null[i] = true
		}
	}
	return &Column{Name: name, Kind: KindCategorical, Cats: vals, Null: null}
}

// NewTimeColumn builds a time column. Zero times are nulls.
func NewTimeColumn(name string, vals []time.Time) *Column {
	null := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsZero() {
			null[i] = true
		}
	}
	return &Column{Name: name, Kind: KindTime, Times: vals, Null: null}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Nums)
	case KindCategorical:
		return len(c.Cats)
	case KindTime:
		return len(c.Times)
	}
	return 0
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.Null {
		if isNull {
			n++
		}
	}
	return n
}

// Unique returns the number of distinct non-null values.
func (c *Column) Unique() int {
	switch c.Kind {
	case KindNumeric:
		seen := make(map[float64]struct{})
		for i, v := range c.Nums {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case KindCategorical:
		seen := make(map[string]struct{})
		for i, v := range c.Cats {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case KindTime:
		seen := make(map[int64]struct{})
		for i, v := range c.Times {
			if !c.Null[i] {
				seen[v.UnixNano()] = struct{}{}
			}
		}
		return len(seen)
	}
	return 0
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Nums != nil {
		out.Nums = append([]float64(nil), c.Nums...)
	}
	if c.Cats != nil {
		out.Cats = append([]string(nil), c.Cats...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	out.Null = append([]bool(nil), c.Null...)
	return out
}

// filter returns a copy of the column containing only rows where keep[i] is true.
func (c *Column) filter(keep []bool) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	for i, k := range keep {
		if !k {
			continue
		}
		switch c.Kind {
		case KindNumeric:
			out.Nums = append(out.Nums, c.Nums[i])
		case KindCategorical:
			out.Cats = append(out.Cats, c.Cats[i])
		case KindTime:
			out.Times = append(out.Times, c.Times[i])
		}
		out.Null = append(out.Null, c.Null[i])
	}
	return out
}

// ColumnSpec is the schema entry for a single column.
type ColumnSpec struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Table is an ordered sequence of equally sized named columns.
type Table struct {
	Cols []*Column
}

// NewTable builds a table from columns, validating equal lengths and
// unique names.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{}
	for _, c := range cols {
		if err := t.Append(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the row count (0 for an empty table).
func (t *Table) NumRows() int {
	if len(t.Cols) == 0 {
		return 0
	}
	return t.Cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Cols) }

// Names returns column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		names[i] = c.Name
	}
	return names
}

// Schema returns the per-column name/kind pairs in order.
func (t *Table) Schema() []ColumnSpec {
	specs := make([]ColumnSpec, len(t.Cols))
	for i, c := range t.Cols {
		specs[i] = ColumnSpec{Name: c.Name, Kind: c.Kind}
	}
	return specs
}

// Column returns the named column, or false if absent.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Append adds a column, enforcing unique names and matching row counts.
func (t *Table) Append(c *Column) error {
	if c == nil {
		return fmt.Errorf("nil column")
	}
	if _, ok := t.Column(c.Name); ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.Cols) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	if len(c.Null) != c.Len() {
		return fmt.Errorf("column %q null mask length mismatch", c.Name)
	}
	t.Cols = append(t.Cols, c)
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Cols: make([]*Column, len(t.Cols))}
	for i, c := range t.Cols {
		out.Cols[i] = c.Clone()
	}
	return out
}

// Drop returns a copy of the table without the named columns. Unknown
// names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	out := &Table{}
	for _, c := range t.Cols {
		if _, ok := skip[c.Name]; ok {
			continue
		}
		out.Cols = append(out.Cols, c.Clone())
	}
	return out
}

// Select returns a copy containing the named columns in the given order.
func (t *Table) Select(names []string) (*Table, error) {
	out := &Table{}
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q not found", n)
		}
		out.Cols = append(out.Cols, c.Clone())
	}
	return out, nil
}

// FilterRows returns a copy keeping only rows where keep[i] is true.
func (t *Table) FilterRows(keep []bool) *Table {
	out := &Table{Cols: make([]*Column, len(t.Cols))}
	for i, c := range t.Cols {
		out.Cols[i] = c.filter(keep)
	}
	return out
}

// DropNullRows returns a copy without any row that has a null in any column.
func (t *Table) DropNullRows() *Table {
	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = true
	}
	for _, c := range t.Cols {
		for i, isNull := range c.Null {
			if isNull {
				keep[i] = false
			}
		}
	}
	return t.FilterRows(keep)
}

// Matrix extracts the named numeric columns as row-major float64 rows.
func (t *Table) Matrix(names []string) ([][]float64, error) {
	cols := make([]*Column, len(names))
	for i, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q not found", n)
		}
		if c.Kind != KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric", n)
		}
		cols[i] = c
	}
	rows := make([][]float64, t.NumRows())
	for r := range rows {
		row := make([]float64, len(cols))
		for i, c := range cols {
			row[i] = c.Nums[r]
		}
		rows[r] = row
	}
	return rows, nil
}
