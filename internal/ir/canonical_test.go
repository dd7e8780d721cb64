package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"null", Null{}, "null"},
		{"nil", nil, "null"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"list of ints", List{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
		{"cleared slot", Object{"cuisine": Null{}}, `{"cuisine":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
		"nested": Object{
			"b": Int(1),
			"a": Int(2),
		},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"nested":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800 0xDC00) which sorts
	// before U+E000 in UTF-16 even though it sorts after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(Object{"text": String("<b>Tom & Jerry</b>")})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"<b>Tom & Jerry</b>"}`, string(result))
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	// Vectors from RFC 8785 appendix B.
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{5e-324, "5e-324"},
		{1.7976931348623157e308, "1.7976931348623157e+308"},
		{9007199254740992, "9007199254740992"},
		{295147905179352830000, "295147905179352830000"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{0.000001, "0.000001"},
		{333333333.3333333, "333333333.3333333"},
		{1.5, "1.5"},
		{-12.25, "-12.25"},
	}
	for _, tt := range tests {
		got, err := MarshalCanonical(Float(tt.in))
		require.NoError(t, err, tt.want)
		assert.Equal(t, tt.want, string(got))
	}

	got, err := MarshalCanonical(map[string]any{"price": 1.5, "qty": float32(2)})
	require.NoError(t, err)
	assert.Equal(t, `{"price":1.5,"qty":2}`, string(got))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Object{"x": Float(math.Inf(-1))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")

	_, err = MarshalCanonical(map[string]any{"x": math.NaN()})
	require.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	decomposed := "caf" + "e\u0301"
	precomposed := "caf\u00e9"

	a, err := MarshalCanonical(String(decomposed))
	require.NoError(t, err)
	b, err := MarshalCanonical(String(precomposed))
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))

	keyed, err := MarshalCanonical(Object{decomposed: Int(1)})
	require.NoError(t, err)
	assert.Equal(t, "{\"caf\u00e9\":1}", string(keyed))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"line separator stays literal", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator stays literal", "a\u2029b", "\"a\u2029b\""},
		{"escaped backslash before u2028 text", `a\u2028`, `"a\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalWithGoTypes(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{
		"name":  "alice",
		"count": 3,
		"ok":    true,
		"tags":  []any{"a", "b"},
		"none":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"name":"alice","none":null,"ok":true,"tags":["a","b"]}`, string(result))
}

func TestMarshalCanonicalSliceOfMaps(t *testing.T) {
	result, err := MarshalCanonical([]map[string]any{
		{"event": "slot", "name": "cuisine", "value": "greek"},
		{"event": "form", "name": nil},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"event":"slot","name":"cuisine","value":"greek"},{"event":"form","name":null}]`,
		string(result))
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	obj := Object{"b": List{Int(1), String("x")}, "a": Object{"y": Bool(true)}}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)

	decoded, err := UnmarshalValue(first)
	require.NoError(t, err)

	second, err := MarshalCanonical(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
