package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiongate/notiongate/pkg/apperrors"
)

func TestToWireColumnBasicTypes(t *testing.T) {
	wire, err := ToWireColumn("Notes", Column{Type: TypeRichText})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"rich_text": map[string]interface{}{}}, wire)

	wire, err = ToWireColumn("Done", Column{Type: TypeCheckbox})
	require.NoError(t, err)
	assert.Contains(t, wire, "checkbox")
}

func TestToWireColumnNumberFormat(t *testing.T) {
	wire, err := ToWireColumn("Price", Column{Type: TypeNumber, NumberFormat: "dollar"})
	require.NoError(t, err)
	assert.Equal(t, "dollar", wire["number"].(map[string]interface{})["format"])

	// Default format when unspecified.
	wire, err = ToWireColumn("Count", Column{Type: TypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "number", wire["number"].(map[string]interface{})["format"])
}

func TestToWireColumnSelectOptions(t *testing.T) {
	wire, err := ToWireColumn("Status", Column{
		Type:    TypeSelect,
		Options: OptionList{"todo", "doing", "done"},
	})
	require.NoError(t, err)
	options := wire["select"].(map[string]interface{})["options"].([]map[string]interface{})
	require.Len(t, options, 3)
	assert.Equal(t, "todo", options[0]["name"])
}

func TestToWireColumnRelation(t *testing.T) {
	t.Run("missing target fails", func(t *testing.T) {
		_, err := ToWireColumn("Projects", Column{Type: TypeRelation})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("single property", func(t *testing.T) {
		wire, err := ToWireColumn("Projects", Column{
			Type:     TypeRelation,
			Relation: &RelationConfig{TargetDatabaseID: "db-123"},
		})
		require.NoError(t, err)
		relation := wire["relation"].(map[string]interface{})
		assert.Equal(t, "db-123", relation["database_id"])
		assert.Equal(t, "single_property", relation["type"])
	})

	t.Run("dual property", func(t *testing.T) {
		wire, err := ToWireColumn("Projects", Column{
			Type: TypeRelation,
			Relation: &RelationConfig{
				TargetDatabaseID:   "db-123",
				SyncedPropertyName: "Tasks",
			},
		})
		require.NoError(t, err)
		relation := wire["relation"].(map[string]interface{})
		assert.Equal(t, "dual_property", relation["type"])
		dual := relation["dual_property"].(map[string]interface{})
		assert.Equal(t, "Tasks", dual["synced_property_name"])
	})
}

func TestToWireColumnFormula(t *testing.T) {
	_, err := ToWireColumn("Total", Column{Type: TypeFormula})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	wire, err := ToWireColumn("Total", Column{
		Type:              TypeFormula,
		FormulaExpression: `prop("Price") * prop("Qty")`,
	})
	require.NoError(t, err)
	formula := wire["formula"].(map[string]interface{})
	assert.Equal(t, `prop("Price") * prop("Qty")`, formula["expression"])
}

func TestToWireColumnRollup(t *testing.T) {
	// All three fields are required together.
	incomplete := []Column{
		{Type: TypeRollup},
		{Type: TypeRollup, Rollup: &RollupConfig{RelationPropertyName: "Projects"}},
		{Type: TypeRollup, Rollup: &RollupConfig{RelationPropertyName: "Projects", RollupPropertyName: "Price"}},
	}
	for _, col := range incomplete {
		_, err := ToWireColumn("Sum", col)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	}

	wire, err := ToWireColumn("Sum", Column{
		Type: TypeRollup,
		Rollup: &RollupConfig{
			RelationPropertyName: "Projects",
			RollupPropertyName:   "Price",
			Function:             "sum",
		},
	})
	require.NoError(t, err)
	rollup := wire["rollup"].(map[string]interface{})
	assert.Equal(t, "sum", rollup["function"])
}

func TestToWireColumnUnknownSkipped(t *testing.T) {
	wire, err := ToWireColumn("Weird", Column{Type: ColumnType("button")})
	require.NoError(t, err)
	assert.Nil(t, wire)
}

func TestToWireColumnsInjectsTitle(t *testing.T) {
	wire, err := ToWireColumns(map[string]Column{
		"Notes": {Type: TypeRichText},
	})
	require.NoError(t, err)
	require.Contains(t, wire, "Title")
	assert.Contains(t, wire["Title"], "title")

	// An existing title suppresses the injection.
	wire, err = ToWireColumns(map[string]Column{
		"Name":  {Type: TypeTitle},
		"Notes": {Type: TypeRichText},
	})
	require.NoError(t, err)
	assert.NotContains(t, wire, "Title")
	assert.Contains(t, wire["Name"], "title")
}

func TestFromWireColumnRoundTrip(t *testing.T) {
	original := map[string]Column{
		"Name":   {Type: TypeTitle},
		"Status": {Type: TypeSelect, Options: OptionList{"open", "closed"}},
		"Price":  {Type: TypeNumber, NumberFormat: "euro"},
		"Projects": {Type: TypeRelation, Relation: &RelationConfig{
			TargetDatabaseID: "db-9", SyncedPropertyName: "Tasks",
		}},
	}

	wire, err := ToWireColumns(original)
	require.NoError(t, err)

	// Upstream returns definitions with a type tag alongside the config.
	for name, def := range wire {
		for key := range def {
			if key != "type" {
				def["type"] = key
				break
			}
		}
		wire[name] = def
	}

	// The registry hydrates from JSON-decoded responses, so the shapes must
	// survive a trip through the codec.
	encoded, err := json.Marshal(wire)
	require.NoError(t, err)
	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	hydrated := FromWireColumns(decoded)
	assert.Equal(t, TypeTitle, hydrated["Name"].Type)
	assert.Equal(t, OptionList{"open", "closed"}, hydrated["Status"].Options)
	assert.Equal(t, "euro", hydrated["Price"].NumberFormat)
	require.NotNil(t, hydrated["Projects"].Relation)
	assert.Equal(t, "db-9", hydrated["Projects"].Relation.TargetDatabaseID)
	assert.Equal(t, "Tasks", hydrated["Projects"].Relation.SyncedPropertyName)
}

func TestFromWireColumnUnknownTypePreserved(t *testing.T) {
	col := FromWireColumn(map[string]interface{}{
		"type":   "status",
		"status": map[string]interface{}{},
	})
	assert.Equal(t, ColumnType("status"), col.Type)
	assert.False(t, col.Type.Known())
}
