package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-node-casewhen/internal/table"
)

func newTable(t *testing.T) *table.Table {
	t.Helper()
	x, err := table.NewColumn("x", []any{0, 1, 2})
	require.NoError(t, err)
	y, err := table.NewColumn("y", []any{10, 11, nil})
	require.NoError(t, err)
	s, err := table.NewColumn("s", []any{"a", "bb", "ccc"})
	require.NoError(t, err)
	tbl, err := table.New(x, y, s)
	require.NoError(t, err)
	return tbl
}

func TestEvaluateColumns(t *testing.T) {
	tbl := newTable(t)
	e := NewEvaluator()

	tests := []struct {
		name string
		expr string
		want []any
	}{
		{"comparison", "x < 2", []any{true, true, false}},
		{"column", "s", []any{"a", "bb", "ccc"}},
		{"arithmetic", "x * 10", []any{int64(0), int64(10), int64(20)}},
		{"null check", "y == null", []any{false, false, true}},
		{"null passthrough", "y", []any{int64(10), int64(11), nil}},
		{"string function", "s.startsWith('b')", []any{false, true, false}},
		{"constant", "true", []any{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateColumns(tt.expr, tbl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateColumnsErrors(t *testing.T) {
	tbl := newTable(t)
	e := NewEvaluator()

	_, err := e.EvaluateColumns("z > 1", tbl)
	require.ErrorIs(t, err, ErrCompile)

	_, err = e.EvaluateColumns("x <", tbl)
	require.ErrorIs(t, err, ErrCompile)

	_, err = e.EvaluateColumns("s < 1", tbl)
	require.ErrorIs(t, err, ErrEval)
}

func TestValidateAndCache(t *testing.T) {
	e := NewEvaluator()

	require.NoError(t, e.Validate("x < 2", []string{"x"}))
	assert.Len(t, e.cache, 1)

	require.NoError(t, e.Validate("x < 2", []string{"x"}))
	assert.Len(t, e.cache, 1)

	err := e.Validate("x < 2", []string{"y"})
	require.ErrorIs(t, err, ErrCompile)
}

func TestEvaluateColumnsNullOperands(t *testing.T) {
	x, err := table.NewColumn("x", []any{0, nil, 2})
	require.NoError(t, err)
	s, err := table.NewColumn("s", []any{"a", "b", nil})
	require.NoError(t, err)
	tbl, err := table.New(x, s)
	require.NoError(t, err)

	e := NewEvaluator()

	got, err := e.EvaluateColumns("x < 2", tbl)
	require.NoError(t, err)
	assert.Equal(t, []any{true, nil, false}, got)

	got, err = e.EvaluateColumns("x + 1", tbl)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(3)}, got)

	// s is null on row 2 but the expression never references it
	_, err = e.EvaluateColumns("x == 2 ? x < 'a' : true", tbl)
	require.ErrorIs(t, err, ErrEval)
	assert.Contains(t, err.Error(), "row 2")
}

func TestVariables(t *testing.T) {
	got := Variables([]string{"y", "x", "has space", "in", "_ok", "1bad"})
	assert.Equal(t, []string{"_ok", "x", "y"}, got)
}
