package canonical

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/medf/errors"
)

func TestMarshal_SortsKeysAndDropsWhitespace(t *testing.T) {
	v := map[string]any{
		"text":     "Hello MEDF",
		"block_id": "example",
		"role":     "body",
		"format":   "markdown",
	}

	got, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"block_id":"example","format":"markdown","role":"body","text":"Hello MEDF"}`, string(got))
}

func TestMarshal_Deterministic(t *testing.T) {
	a := map[string]any{"b": []any{1, "x", nil}, "a": map[string]any{"z": true, "y": false}}
	b := map[string]any{"a": map[string]any{"y": false, "z": true}, "b": []any{1, "x", nil}}

	first, err := Marshal(a)
	require.NoError(t, err)
	second, err := Marshal(a)
	require.NoError(t, err)
	reordered, err := Marshal(b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, reordered, "insertion order must not affect output")
	assert.Equal(t, `{"a":{"y":false,"z":true},"b":[1,"x",null]}`, string(first))
}

func TestMarshal_PreservesArrayOrder(t *testing.T) {
	got, err := Marshal([]any{"c", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["c","a","b"]`, string(got))
}

func TestMarshal_NonASCIIUnescaped(t *testing.T) {
	got, err := Marshal(map[string]any{"title": "国土交通省 — café"})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"国土交通省 — café"}`, string(got))
}

func TestMarshal_StringEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"short forms", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"other control", "\x01\x1f", `"\u0001\u001f"`},
		{"html stays literal", "<a href='x'>&</a>", `"<a href='x'>&</a>"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"slash literal", "a/b", `"a/b"`},
		{"delete literal", "\x7f", "\"\x7f\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_Numbers(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(255), "255"},
		{4.5, "4.5"},
		{0.1, "0.1"},
		{123.456, "123.456"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1e-6, "0.000001"},
		{1e-7, "1e-7"},
		{-1.5e-9, "-1.5e-9"},
		{1e30, "1e+30"},
		{9007199254740992.0, "9007199254740992"},
		{333333333.33333329, "333333333.3333333"},
		{json.Number("1.0"), "1"},
		{json.Number("10"), "10"},
		{json.Number("-0.0"), "0"},
		{json.Number("2.5E3"), "2500"},
		{float32(0.5), "0.5"},
	}

	for _, tt := range tests {
		got, err := Marshal(tt.in)
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, string(got), "input %v", tt.in)
	}
}

func TestMarshal_RejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"nested -Inf", map[string]any{"x": []any{math.Inf(-1)}}},
		{"malformed number", json.Number("1.2.3")},
		{"invalid utf8", string([]byte{0xff, 0xfe})},
		{"invalid utf8 key", map[string]any{string([]byte{0xc3}): 1}},
		{"struct", struct{ A int }{1}},
		{"channel", make(chan int)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsEncodingError(err))
		})
	}
}

func TestMarshal_ErrorCarriesPath(t *testing.T) {
	_, err := Marshal(map[string]any{"blocks": []any{map[string]any{"n": math.NaN()}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.blocks[0].n")
}

func TestTransform(t *testing.T) {
	raw := []byte(`{
		"z": [3, 2, 1],
		"a": {"d": 1.50, "c": "ü"}
	}`)

	got, err := Transform(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":"ü","d":1.5},"z":[3,2,1]}`, string(got))
}

func TestTransform_RejectsTrailingData(t *testing.T) {
	_, err := Transform([]byte(`{} {}`))
	require.Error(t, err)
	assert.True(t, errors.IsEncodingError(err))

	_, err = Transform([]byte(`{`))
	require.Error(t, err)
	assert.True(t, errors.IsEncodingError(err))
}

func TestMarshal_StringSlicesAndMaps(t *testing.T) {
	got, err := Marshal(map[string]any{"tags": []string{"b", "a"}, "meta": map[string]string{"y": "2", "x": "1"}})
	require.NoError(t, err)
	assert.Equal(t, `{"meta":{"x":"1","y":"2"},"tags":["b","a"]}`, string(got))
}

func TestMustMarshalPanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(math.NaN()) })
	assert.Equal(t, []byte(`"ok"`), MustMarshal("ok"))
}
