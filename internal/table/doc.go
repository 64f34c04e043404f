// Package table provides the minimal columnar container consumed by the
// case-when evaluator.
//
// A Table is an ordered set of named columns sharing one row count. Column
// values are normalized to bool, int64, float64 or string; nil is the null
// marker.
//
// Example usage:
//
//	x, _ := table.NewColumn("x", []any{0, 1, 2})
//	y, _ := table.NewColumn("y", []any{10, 11, 12})
//	tbl, err := table.New(x, y)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	col, _ := tbl.Column("y")
//	fmt.Println(col.Kind(), col.Value(0)) // int 10
//
// Tables decode from and encode to JSON objects of column arrays, keeping
// the column order of the document:
//
//	{"x": [0, 1, 2], "y": [10, 11, 12]}
package table
