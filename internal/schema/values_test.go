package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWireValueText(t *testing.T) {
	wire, ok := ToWireValue(TypeRichText, "hello")
	require.True(t, ok)
	runs, ok := wire["rich_text"].([]interface{})
	require.True(t, ok)
	require.Len(t, runs, 1)
	text := runs[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.Equal(t, "hello", text["content"])

	// Nil clears: the property is written with an empty run list, not omitted.
	wire, ok = ToWireValue(TypeRichText, nil)
	require.True(t, ok)
	assert.Empty(t, wire["rich_text"])

	// Numbers stringify rather than fail.
	wire, _ = ToWireValue(TypeTitle, float64(42))
	runs = wire["title"].([]interface{})
	require.Len(t, runs, 1)
	text = runs[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.Equal(t, "42", text["content"])
}

func TestToWireValueCheckbox(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"string true", "true", true},
		{"string TRUE", "TRUE", true},
		{"string false", "false", false},
		{"empty string", "", false},
		{"other string", "yes", true},
		{"nil", nil, false},
		{"zero", float64(0), false},
		{"nonzero", float64(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, ok := ToWireValue(TypeCheckbox, tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.expected, wire["checkbox"])
		})
	}
}

func TestToWireValueSelect(t *testing.T) {
	wire, ok := ToWireValue(TypeSelect, "urgent")
	require.True(t, ok)
	sel := wire["select"].(map[string]interface{})
	assert.Equal(t, "urgent", sel["name"])

	// Empty or nil clears the select.
	wire, _ = ToWireValue(TypeSelect, "")
	assert.Nil(t, wire["select"])
	wire, _ = ToWireValue(TypeSelect, nil)
	assert.Nil(t, wire["select"])

	// An array takes the first element.
	wire, _ = ToWireValue(TypeSelect, []interface{}{"a", "b"})
	sel = wire["select"].(map[string]interface{})
	assert.Equal(t, "a", sel["name"])
}

func TestToWireValueMultiSelect(t *testing.T) {
	wire, ok := ToWireValue(TypeMultiSelect, []interface{}{"red", "blue"})
	require.True(t, ok)
	selects := wire["multi_select"].([]map[string]interface{})
	require.Len(t, selects, 2)
	assert.Equal(t, "red", selects[0]["name"])
	assert.Equal(t, "blue", selects[1]["name"])

	// A bare string is a single-element list.
	wire, _ = ToWireValue(TypeMultiSelect, "green")
	selects = wire["multi_select"].([]map[string]interface{})
	require.Len(t, selects, 1)
	assert.Equal(t, "green", selects[0]["name"])

	wire, _ = ToWireValue(TypeMultiSelect, nil)
	assert.Empty(t, wire["multi_select"])
}

func TestToWireValueDate(t *testing.T) {
	wire, ok := ToWireValue(TypeDate, "2026-01-15")
	require.True(t, ok)
	date := wire["date"].(map[string]interface{})
	assert.Equal(t, "2026-01-15", date["start"])

	wire, _ = ToWireValue(TypeDate, nil)
	assert.Nil(t, wire["date"])
}

func TestToWireValueNumber(t *testing.T) {
	wire, ok := ToWireValue(TypeNumber, float64(3.5))
	require.True(t, ok)
	assert.Equal(t, 3.5, wire["number"])

	wire, _ = ToWireValue(TypeNumber, "12")
	assert.Equal(t, float64(12), wire["number"])

	// Unparsable degrades to a clear, never an error.
	wire, _ = ToWireValue(TypeNumber, "not a number")
	assert.Nil(t, wire["number"])
}

func TestToWireValueRelation(t *testing.T) {
	wire, ok := ToWireValue(TypeRelation, []interface{}{"id-1", "id-2"})
	require.True(t, ok)
	refs := wire["relation"].([]map[string]interface{})
	require.Len(t, refs, 2)
	assert.Equal(t, "id-1", refs[0]["id"])
	assert.Equal(t, "id-2", refs[1]["id"])
}

func TestToWireValueComputedDropped(t *testing.T) {
	for _, ct := range []ColumnType{
		TypeFormula, TypeRollup, TypeCreatedTime, TypeLastEditedTime,
		TypeCreatedBy, TypeLastEditedBy,
	} {
		wire, ok := ToWireValue(ct, "anything")
		assert.False(t, ok, "type %s must drop writes", ct)
		assert.Nil(t, wire)
	}
}

func TestToWireValueUnknownFallsBackToText(t *testing.T) {
	wire, ok := ToWireValue(ColumnType("status"), "In Progress")
	require.True(t, ok)
	runs := wire["rich_text"].([]interface{})
	require.Len(t, runs, 1)
}

func TestFromWireValue(t *testing.T) {
	t.Run("title", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type":  "title",
			"title": []interface{}{map[string]interface{}{"plain_text": "My Page"}},
		})
		require.True(t, ok)
		assert.Equal(t, "My Page", value)
	})

	t.Run("checkbox", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type": "checkbox", "checkbox": true,
		})
		require.True(t, ok)
		assert.Equal(t, true, value)
	})

	t.Run("empty select is nil", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type": "select", "select": nil,
		})
		require.True(t, ok)
		assert.Nil(t, value)
	})

	t.Run("multi select names", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type": "multi_select",
			"multi_select": []interface{}{
				map[string]interface{}{"name": "a"},
				map[string]interface{}{"name": "b"},
			},
		})
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, value)
	})

	t.Run("date start", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type": "date",
			"date": map[string]interface{}{"start": "2026-02-01"},
		})
		require.True(t, ok)
		assert.Equal(t, "2026-02-01", value)
	})

	t.Run("files prefer internal url", func(t *testing.T) {
		value, ok := FromWireValue(map[string]interface{}{
			"type": "files",
			"files": []interface{}{
				map[string]interface{}{
					"file":     map[string]interface{}{"url": "https://internal/a"},
					"external": map[string]interface{}{"url": "https://external/a"},
				},
				map[string]interface{}{
					"external": map[string]interface{}{"url": "https://external/b"},
				},
			},
		})
		require.True(t, ok)
		assert.Equal(t, []string{"https://internal/a", "https://external/b"}, value)
	})

	t.Run("unhandled type", func(t *testing.T) {
		_, ok := FromWireValue(map[string]interface{}{"type": "verification"})
		assert.False(t, ok)
	})
}

func TestTextRoundTrip(t *testing.T) {
	wire, ok := ToWireValue(TypeRichText, "round trip")
	require.True(t, ok)

	// Upstream echoes runs back with plain_text populated.
	wire["type"] = "rich_text"
	runs := wire["rich_text"].([]interface{})
	runs[0].(map[string]interface{})["plain_text"] = "round trip"

	value, ok := FromWireValue(wire)
	require.True(t, ok)
	assert.Equal(t, "round trip", value)
}
