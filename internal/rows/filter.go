package rows

import (
	"strconv"
	"strings"

	"github.com/notiongate/notiongate/internal/schema"
)

// BuildFilter turns a mapping of column name to predicate into a conjunctive
// upstream filter. Column names resolve through the usual aliases; names
// that resolve to no declared column are dropped from the filter. Returns
// nil when no condition applies.
func BuildFilter(s *schema.Schema, filters map[string]interface{}) interface{} {
	if len(filters) == 0 {
		return nil
	}

	var conditions []map[string]interface{}
	for inputName, value := range filters {
		name := schema.ResolveColumn(s.Columns, inputName)
		col, ok := s.Columns[name]
		if !ok || value == nil {
			continue
		}

		if cond := condition(name, col.Type, value); cond != nil {
			conditions = append(conditions, cond)
		}
	}

	if len(conditions) == 0 {
		return nil
	}
	return map[string]interface{}{"and": conditions}
}

func condition(name string, t schema.ColumnType, value interface{}) map[string]interface{} {
	switch t {
	case schema.TypeCheckbox:
		b, ok := asBool(value)
		if !ok {
			return nil
		}
		return map[string]interface{}{
			"property": name,
			"checkbox": map[string]interface{}{"equals": b},
		}

	case schema.TypeSelect:
		if s := asString(value); s != "" {
			return map[string]interface{}{
				"property": name,
				"select":   map[string]interface{}{"equals": s},
			}
		}

	case schema.TypeMultiSelect:
		if s := asString(value); s != "" {
			return map[string]interface{}{
				"property":     name,
				"multi_select": map[string]interface{}{"contains": s},
			}
		}

	case schema.TypeTitle, schema.TypeRichText:
		if s := asString(value); s != "" {
			return map[string]interface{}{
				"property": name,
				string(t):  map[string]interface{}{"contains": s},
			}
		}

	case schema.TypeDate:
		if pred := rangePredicate(value, "equals", "after", "before"); pred != nil {
			return map[string]interface{}{"property": name, "date": pred}
		}
		if s := asString(value); s != "" {
			return map[string]interface{}{
				"property": name,
				"date":     map[string]interface{}{"equals": s},
			}
		}

	case schema.TypeNumber:
		if pred := rangePredicate(value, "equals", "greater_than", "less_than"); pred != nil {
			return map[string]interface{}{"property": name, "number": pred}
		}
		if n, ok := asNumber(value); ok {
			return map[string]interface{}{
				"property": name,
				"number":   map[string]interface{}{"equals": n},
			}
		}
	}

	return nil
}

// rangePredicate picks the allowed predicate keys out of a map-shaped filter
// value, like {"after": "2025-05-01"} or {"greater_than": 3}
func rangePredicate(value interface{}, keys ...string) map[string]interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	pred := make(map[string]interface{})
	for _, key := range keys {
		if v, present := m[key]; present && v != nil {
			pred[key] = v
		}
	}
	if len(pred) == 0 {
		return nil
	}
	return pred
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

// asBool accepts booleans and the query-string forms "true"/"false"
func asBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// asNumber accepts numbers and numeric strings (query parameters)
func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
