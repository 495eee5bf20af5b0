package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiongate/notiongate/internal/schema"
)

func filterSchema() *schema.Schema {
	return &schema.Schema{
		ID:   "db-1",
		Name: "Projects",
		Columns: map[string]schema.Column{
			"Name":     {Type: schema.TypeTitle},
			"Done":     {Type: schema.TypeCheckbox},
			"Status":   {Type: schema.TypeSelect},
			"Tags":     {Type: schema.TypeMultiSelect},
			"Due Date": {Type: schema.TypeDate},
			"Count":    {Type: schema.TypeNumber},
			"Notes":    {Type: schema.TypeRichText},
		},
	}
}

func conditions(t *testing.T, filter interface{}) []map[string]interface{} {
	t.Helper()
	require.NotNil(t, filter)
	and, ok := filter.(map[string]interface{})["and"].([]map[string]interface{})
	require.True(t, ok)
	return and
}

func TestBuildFilterEmpty(t *testing.T) {
	s := filterSchema()
	assert.Nil(t, BuildFilter(s, nil))
	assert.Nil(t, BuildFilter(s, map[string]interface{}{}))

	// Unknown columns and nil values drop out entirely.
	assert.Nil(t, BuildFilter(s, map[string]interface{}{
		"NoSuchColumn": "x",
		"Done":         nil,
	}))
}

func TestBuildFilterCheckbox(t *testing.T) {
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Done": "true",
	}))
	require.Len(t, conds, 1)
	assert.Equal(t, "Done", conds[0]["property"])
	assert.Equal(t, map[string]interface{}{"equals": true}, conds[0]["checkbox"])

	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Done": false,
	}))
	assert.Equal(t, map[string]interface{}{"equals": false}, conds[0]["checkbox"])
}

func TestBuildFilterSelectAndMultiSelect(t *testing.T) {
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Status": "active",
	}))
	assert.Equal(t, map[string]interface{}{"equals": "active"}, conds[0]["select"])

	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Tags": "urgent",
	}))
	assert.Equal(t, map[string]interface{}{"contains": "urgent"}, conds[0]["multi_select"])
}

func TestBuildFilterText(t *testing.T) {
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Notes": "meeting",
	}))
	assert.Equal(t, map[string]interface{}{"contains": "meeting"}, conds[0]["rich_text"])

	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Name": "launch",
	}))
	assert.Equal(t, map[string]interface{}{"contains": "launch"}, conds[0]["title"])
}

func TestBuildFilterDate(t *testing.T) {
	// A bare string is an equality match.
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Due Date": "2026-03-01",
	}))
	assert.Equal(t, map[string]interface{}{"equals": "2026-03-01"}, conds[0]["date"])

	// A map carries range predicates through.
	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"due date": map[string]interface{}{"after": "2026-01-01", "before": "2026-12-31"},
	}))
	assert.Equal(t, "Due Date", conds[0]["property"])
	assert.Equal(t, map[string]interface{}{
		"after":  "2026-01-01",
		"before": "2026-12-31",
	}, conds[0]["date"])
}

func TestBuildFilterNumber(t *testing.T) {
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Count": "5",
	}))
	assert.Equal(t, map[string]interface{}{"equals": float64(5)}, conds[0]["number"])

	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"Count": map[string]interface{}{"greater_than": float64(3)},
	}))
	assert.Equal(t, map[string]interface{}{"greater_than": float64(3)}, conds[0]["number"])
}

func TestBuildFilterResolvesAliases(t *testing.T) {
	// "title" resolves to the schema's title column whatever its name.
	conds := conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"title": "launch",
	}))
	assert.Equal(t, "Name", conds[0]["property"])

	// Case-insensitive match on declared names.
	conds = conditions(t, BuildFilter(filterSchema(), map[string]interface{}{
		"status": "active",
	}))
	assert.Equal(t, "Status", conds[0]["property"])
}

func TestBuildFilterConjunction(t *testing.T) {
	filter := BuildFilter(filterSchema(), map[string]interface{}{
		"Done":   true,
		"Status": "active",
	})
	conds := conditions(t, filter)
	assert.Len(t, conds, 2)
}
