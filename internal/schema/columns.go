package schema

import (
	"github.com/notiongate/notiongate/pkg/apperrors"
)

// ToWireColumn converts a canonical column definition into the upstream
// property definition shape. Relations, formulas, and rollups hard-fail when
// their required configuration is missing; a definition with no target is
// meaningless and must not reach the upstream API. Unknown types return a
// nil map, which callers skip.
func ToWireColumn(name string, col Column) (map[string]interface{}, error) {
	switch col.Type {
	case TypeTitle, TypeRichText, TypeCheckbox, TypeDate, TypeURL, TypeEmail,
		TypePhoneNumber, TypeFiles, TypePeople, TypeCreatedTime,
		TypeLastEditedTime, TypeCreatedBy, TypeLastEditedBy:
		return map[string]interface{}{string(col.Type): map[string]interface{}{}}, nil

	case TypeNumber:
		format := col.NumberFormat
		if format == "" {
			format = "number"
		}
		return map[string]interface{}{
			"number": map[string]interface{}{"format": format},
		}, nil

	case TypeSelect, TypeMultiSelect:
		options := make([]map[string]interface{}, 0, len(col.Options))
		for _, opt := range col.Options {
			options = append(options, map[string]interface{}{"name": opt})
		}
		return map[string]interface{}{
			string(col.Type): map[string]interface{}{"options": options},
		}, nil

	case TypeRelation:
		if col.Relation == nil || col.Relation.TargetDatabaseID == "" {
			return nil, apperrors.Validationf("relation property %q requires a target database_id", name)
		}
		relation := map[string]interface{}{
			"database_id": col.Relation.TargetDatabaseID,
		}
		if col.Relation.SyncedPropertyName != "" {
			relation["type"] = "dual_property"
			relation["dual_property"] = map[string]interface{}{
				"synced_property_name": col.Relation.SyncedPropertyName,
			}
		} else {
			relation["type"] = "single_property"
			relation["single_property"] = map[string]interface{}{}
		}
		return map[string]interface{}{"relation": relation}, nil

	case TypeFormula:
		if col.FormulaExpression == "" {
			return nil, apperrors.Validationf("formula property %q requires an expression", name)
		}
		return map[string]interface{}{
			"formula": map[string]interface{}{"expression": col.FormulaExpression},
		}, nil

	case TypeRollup:
		r := col.Rollup
		if r == nil || r.RelationPropertyName == "" || r.RollupPropertyName == "" || r.Function == "" {
			return nil, apperrors.Validationf(
				"rollup property %q requires relation_property_name, rollup_property_name, and function", name)
		}
		return map[string]interface{}{
			"rollup": map[string]interface{}{
				"relation_property_name": r.RelationPropertyName,
				"rollup_property_name":   r.RollupPropertyName,
				"function":               r.Function,
			},
		}, nil
	}

	return nil, nil
}

// ToWireColumns converts a full canonical column set, skipping unsupported
// types and guaranteeing the wire payload carries a title property.
func ToWireColumns(columns map[string]Column) (map[string]map[string]interface{}, error) {
	result := make(map[string]map[string]interface{}, len(columns))
	hasTitle := false
	for name, col := range columns {
		wire, err := ToWireColumn(name, col)
		if err != nil {
			return nil, err
		}
		if wire == nil {
			continue
		}
		if _, ok := wire["title"]; ok {
			hasTitle = true
		}
		result[name] = wire
	}
	if !hasTitle {
		result["Title"] = map[string]interface{}{"title": map[string]interface{}{}}
	}
	return result, nil
}

// FromWireColumn hydrates a canonical column from the upstream property
// definition shape. Unknown wire types keep their type tag so schema drift
// upstream is carried through rather than dropped.
func FromWireColumn(prop map[string]interface{}) Column {
	typeTag, _ := prop["type"].(string)
	col := Column{Type: ColumnType(typeTag)}

	switch col.Type {
	case TypeSelect, TypeMultiSelect:
		col.Options = optionNames(subMap(prop, typeTag)["options"])

	case TypeNumber:
		format, _ := subMap(prop, "number")["format"].(string)
		if format == "" {
			format = "number"
		}
		col.NumberFormat = format

	case TypeRelation:
		relation := subMap(prop, "relation")
		cfg := &RelationConfig{}
		cfg.TargetDatabaseID, _ = relation["database_id"].(string)
		if dual := subMap(relation, "dual_property"); dual != nil {
			cfg.SyncedPropertyName, _ = dual["synced_property_name"].(string)
		}
		col.Relation = cfg

	case TypeFormula:
		col.FormulaExpression, _ = subMap(prop, "formula")["expression"].(string)

	case TypeRollup:
		rollup := subMap(prop, "rollup")
		cfg := &RollupConfig{}
		cfg.RelationPropertyName, _ = rollup["relation_property_name"].(string)
		cfg.RollupPropertyName, _ = rollup["rollup_property_name"].(string)
		cfg.Function, _ = rollup["function"].(string)
		col.Rollup = cfg
	}

	return col
}

// FromWireColumns hydrates a full canonical column set
func FromWireColumns(props map[string]map[string]interface{}) map[string]Column {
	result := make(map[string]Column, len(props))
	for name, prop := range props {
		if prop == nil {
			continue
		}
		if _, ok := prop["type"].(string); !ok {
			continue
		}
		result[name] = FromWireColumn(prop)
	}
	return result
}

func subMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]interface{})
	return sub
}

func optionNames(raw interface{}) OptionList {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	names := make(OptionList, 0, len(items))
	for _, item := range items {
		if opt, ok := item.(map[string]interface{}); ok {
			if name, ok := opt["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
