package table

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnify(t *testing.T) {
	tests := []struct {
		a, b Kind
		want Kind
		ok   bool
	}{
		{KindNull, KindString, KindString, true},
		{KindBool, KindNull, KindBool, true},
		{KindInt, KindInt, KindInt, true},
		{KindInt, KindFloat, KindFloat, true},
		{KindFloat, KindInt, KindFloat, true},
		{KindString, KindInt, KindNull, false},
		{KindBool, KindInt, KindNull, false},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"_"+tt.b.String(), func(t *testing.T) {
			got, ok := Unify(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	v, k, err := Normalize(uint64(math.MaxInt64))
	require.NoError(t, err)
	assert.Equal(t, KindInt, k)
	assert.Equal(t, int64(math.MaxInt64), v)

	tests := []struct {
		name string
		v    any
		want error
	}{
		{"uint64 above int64", uint64(math.MaxUint64), ErrOutOfRange},
		{"nan", math.NaN(), ErrOutOfRange},
		{"positive inf", math.Inf(1), ErrOutOfRange},
		{"negative inf float32", float32(math.Inf(-1)), ErrOutOfRange},
		{"huge json number", json.Number("1e999"), ErrOutOfRange},
		{"struct", struct{}{}, ErrUnsupported},
		{"slice", []int{1}, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.v)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewColumn(t *testing.T) {
	t.Run("infers int", func(t *testing.T) {
		col, err := NewColumn("x", []any{0, int32(1), uint8(2)})
		require.NoError(t, err)
		assert.Equal(t, KindInt, col.Kind())
		assert.Equal(t, []any{int64(0), int64(1), int64(2)}, col.Values())
	})

	t.Run("promotes ints to float", func(t *testing.T) {
		col, err := NewColumn("x", []any{1, 2.5, nil})
		require.NoError(t, err)
		assert.Equal(t, KindFloat, col.Kind())
		assert.Equal(t, []any{1.0, 2.5, nil}, col.Values())
		assert.True(t, col.IsNull(2))
	})

	t.Run("all null", func(t *testing.T) {
		col, err := NewColumn("x", []any{nil, nil})
		require.NoError(t, err)
		assert.Equal(t, KindNull, col.Kind())
	})

	t.Run("rejects mixed kinds", func(t *testing.T) {
		_, err := NewColumn("x", []any{1, "a"})
		require.Error(t, err)
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		_, err := NewColumn("x", []any{struct{}{}})
		require.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	x, err := NewColumn("x", []any{0, 1, 2})
	require.NoError(t, err)
	y, err := NewColumn("y", []any{10, 11, 12})
	require.NoError(t, err)
	short, err := NewColumn("z", []any{1})
	require.NoError(t, err)

	tbl, err := New(x, y)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"x", "y"}, tbl.Names())
	assert.Equal(t, map[string]any{"x": int64(1), "y": int64(11)}, tbl.Row(1))

	_, err = New(x, short)
	require.Error(t, err)

	_, err = New(x, x)
	require.Error(t, err)
}

func TestTableJSON(t *testing.T) {
	var tbl Table
	err := json.Unmarshal([]byte(`{"y": [10, 11.5, null], "x": [0, 1, 2], "s": ["a", "b", "c"]}`), &tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "x", "s"}, tbl.Names())
	y, ok := tbl.Column("y")
	require.True(t, ok)
	assert.Equal(t, KindFloat, y.Kind())
	assert.Equal(t, []any{10.0, 11.5, nil}, y.Values())

	x, _ := tbl.Column("x")
	assert.Equal(t, KindInt, x.Kind())

	data, err := json.Marshal(&tbl)
	require.NoError(t, err)
	assert.JSONEq(t, `{"y": [10, 11.5, null], "x": [0, 1, 2], "s": ["a", "b", "c"]}`, string(data))

	err = json.Unmarshal([]byte(`{"x": [0, 1], "y": [1]}`), &tbl)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`[1, 2]`), &tbl)
	require.Error(t, err)
}

func TestTableJSONKeepsFloatKind(t *testing.T) {
	f, err := NewColumn("f", []any{1.0, 2.0, nil})
	require.NoError(t, err)
	i, err := NewColumn("i", []any{1, 2, 3})
	require.NoError(t, err)
	tbl, err := New(f, i)
	require.NoError(t, err)

	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Equal(t, `{"f":[1.0,2.0,null],"i":[1,2,3]}`, string(data))

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	col, ok := decoded.Column("f")
	require.True(t, ok)
	assert.Equal(t, KindFloat, col.Kind())
	assert.Equal(t, []any{1.0, 2.0, nil}, col.Values())

	col, _ = decoded.Column("i")
	assert.Equal(t, KindInt, col.Kind())
}
