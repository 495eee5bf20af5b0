package schema

import (
	"encoding/json"
	"fmt"
)

// ColumnType identifies the upstream property type of a column
type ColumnType string

const (
	TypeTitle          ColumnType = "title"
	TypeRichText       ColumnType = "rich_text"
	TypeCheckbox       ColumnType = "checkbox"
	TypeSelect         ColumnType = "select"
	TypeMultiSelect    ColumnType = "multi_select"
	TypeDate           ColumnType = "date"
	TypeNumber         ColumnType = "number"
	TypeURL            ColumnType = "url"
	TypeEmail          ColumnType = "email"
	TypePhoneNumber    ColumnType = "phone_number"
	TypeRelation       ColumnType = "relation"
	TypeFiles          ColumnType = "files"
	TypeFormula        ColumnType = "formula"
	TypeRollup         ColumnType = "rollup"
	TypePeople         ColumnType = "people"
	TypeCreatedTime    ColumnType = "created_time"
	TypeLastEditedTime ColumnType = "last_edited_time"
	TypeCreatedBy      ColumnType = "created_by"
	TypeLastEditedBy   ColumnType = "last_edited_by"
)

// Computed reports whether the upstream service owns this column's values.
// Writes against computed columns are silently dropped.
func (t ColumnType) Computed() bool {
	switch t {
	case TypeFormula, TypeRollup, TypeCreatedTime, TypeLastEditedTime, TypeCreatedBy, TypeLastEditedBy:
		return true
	}
	return false
}

// Known reports whether the type is one this gateway understands. Unknown
// types are carried opaquely and fall back to rich_text value handling.
func (t ColumnType) Known() bool {
	switch t {
	case TypeTitle, TypeRichText, TypeCheckbox, TypeSelect, TypeMultiSelect,
		TypeDate, TypeNumber, TypeURL, TypeEmail, TypePhoneNumber,
		TypeRelation, TypeFiles, TypeFormula, TypeRollup, TypePeople,
		TypeCreatedTime, TypeLastEditedTime, TypeCreatedBy, TypeLastEditedBy:
		return true
	}
	return false
}

// RelationConfig configures a relation column
type RelationConfig struct {
	TargetDatabaseID   string `json:"database_id"`
	SyncedPropertyName string `json:"synced_property_name,omitempty"`
}

// RollupConfig configures a rollup column
type RollupConfig struct {
	RelationPropertyName string `json:"relation_property_name"`
	RollupPropertyName   string `json:"rollup_property_name"`
	Function             string `json:"function"`
}

// OptionList holds select/multi_select options. Callers may supply options as
// bare strings or as {name, color} objects; both decode to the option name.
type OptionList []string

// UnmarshalJSON accepts ["A","B"] as well as [{"name":"A","color":"red"}]
func (o *OptionList) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]interface{}:
			if name, ok := v["name"].(string); ok {
				out = append(out, name)
			}
		default:
			return fmt.Errorf("invalid option entry: %v", item)
		}
	}
	*o = out
	return nil
}

// Column is the canonical definition of one typed column
type Column struct {
	Type              ColumnType      `json:"type"`
	Options           OptionList      `json:"options,omitempty"`
	Relation          *RelationConfig `json:"relation,omitempty"`
	Rollup            *RollupConfig   `json:"rollup,omitempty"`
	NumberFormat      string          `json:"format,omitempty"`
	FormulaExpression string          `json:"expression,omitempty"`
}

// Schema is the canonical definition of one database
type Schema struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Columns        map[string]Column `json:"properties"`
	CreatedTime    string            `json:"createdTime,omitempty"`
	LastEditedTime string            `json:"lastEditedTime,omitempty"`
	URL            string            `json:"url,omitempty"`
}

// TitleColumn returns the name of the schema's title column, if any
func (s *Schema) TitleColumn() (string, bool) {
	for name, col := range s.Columns {
		if col.Type == TypeTitle {
			return name, true
		}
	}
	return "", false
}

// EnsureTitle guarantees the invariant that every schema has exactly one
// title column, injecting one named "Title" when the caller omitted it.
func EnsureTitle(columns map[string]Column) map[string]Column {
	if columns == nil {
		columns = make(map[string]Column)
	}
	for _, col := range columns {
		if col.Type == TypeTitle {
			return columns
		}
	}
	columns["Title"] = Column{Type: TypeTitle}
	return columns
}
