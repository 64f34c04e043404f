package table

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Column is a named, typed sequence of values. A nil value is the null marker.
type Column struct {
	name   string
	kind   Kind
	values []any
}

// NewColumn creates a column from raw values, inferring its kind
func NewColumn(name string, values []any) (*Column, error) {
	out := make([]any, len(values))
	kind := KindNull

	for i, v := range values {
		nv, k, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}

		unified, ok := Unify(kind, k)
		if !ok {
			return nil, fmt.Errorf("column %q row %d: cannot mix %s and %s", name, i, kind, k)
		}
		kind = unified
		out[i] = nv
	}

	if kind == KindFloat {
		promoteFloats(out)
	}

	return &Column{name: name, kind: kind, values: out}, nil
}

// promoteFloats converts int64 values to float64 in place
func promoteFloats(values []any) {
	for i, v := range values {
		if n, ok := v.(int64); ok {
			values[i] = float64(n)
		}
	}
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns the element kind
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows
func (c *Column) Len() int { return len(c.values) }

// Value returns the value at row i, nil when null
func (c *Column) Value(i int) any { return c.values[i] }

// IsNull reports whether row i holds the null marker
func (c *Column) IsNull(i int) bool { return c.values[i] == nil }

// Values returns a copy of the column values
func (c *Column) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// Rename returns a column sharing values with c under a new name
func (c *Column) Rename(name string) *Column {
	return &Column{name: name, kind: c.kind, values: c.values}
}

// Table is an ordered set of columns sharing one row count
type Table struct {
	names   []string
	columns map[string]*Column
	rows    int
}

// New creates a table from columns. All columns must have the same length
// and distinct names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		names:   make([]string, 0, len(cols)),
		columns: make(map[string]*Column, len(cols)),
	}

	for i, col := range cols {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.columns[col.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.name, col.Len(), t.rows)
		}
		t.names = append(t.names, col.name)
		t.columns[col.name] = col
	}

	return t, nil
}

// NumRows returns the row count
func (t *Table) NumRows() int { return t.rows }

// Names returns the column names in insertion order
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Row returns the values of row i keyed by column name
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.names))
	for _, name := range t.names {
		row[name] = t.columns[name].values[i]
	}
	return row
}

// UnmarshalJSON decodes a table from {"col": [...], ...}, keeping the
// column order of the document.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("table must be a JSON object")
	}

	var cols []*Column
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read column name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var values []any
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}

		col, err := NewColumn(name, values)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}

	decoded, err := New(cols...)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// MarshalJSON encodes the table as {"col": [...], ...} in column order
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := t.columns[name].encodeValues(&buf); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValues writes the column as a JSON array. Float values always carry a
// decimal point so the column decodes back as float.
func (c *Column) encodeValues(buf *bytes.Buffer) error {
	buf.WriteByte('[')
	for i, v := range c.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
		if _, ok := v.(float64); ok && !bytes.ContainsAny(data, ".eE") {
			buf.WriteString(".0")
		}
	}
	buf.WriteByte(']')
	return nil
}
