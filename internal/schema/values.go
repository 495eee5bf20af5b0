package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ToWireValue converts a raw caller-supplied value into the upstream property
// value shape for the given column type. The second return is false when the
// write must be dropped (computed columns). Malformed values degrade to a
// safe default and never produce an error; a nil raw value is an explicit
// clear, not an omission — omission is the caller's job to handle by never
// calling this at all.
func ToWireValue(t ColumnType, raw interface{}) (map[string]interface{}, bool) {
	if t.Computed() {
		return nil, false
	}

	switch t {
	case TypeTitle, TypeRichText:
		return map[string]interface{}{string(t): textRuns(raw)}, true

	case TypeCheckbox:
		return map[string]interface{}{"checkbox": toBool(raw)}, true

	case TypeSelect:
		name := selectName(raw)
		if name == "" {
			return map[string]interface{}{"select": nil}, true
		}
		return map[string]interface{}{
			"select": map[string]interface{}{"name": name},
		}, true

	case TypeMultiSelect:
		names := stringList(raw)
		selects := make([]map[string]interface{}, 0, len(names))
		for _, n := range names {
			selects = append(selects, map[string]interface{}{"name": n})
		}
		return map[string]interface{}{"multi_select": selects}, true

	case TypeDate:
		s := toString(raw)
		if s == "" {
			return map[string]interface{}{"date": nil}, true
		}
		return map[string]interface{}{
			"date": map[string]interface{}{"start": s},
		}, true

	case TypeNumber:
		return map[string]interface{}{"number": toNumber(raw)}, true

	case TypeRelation:
		ids := stringList(raw)
		refs := make([]map[string]interface{}, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, map[string]interface{}{"id": id})
		}
		return map[string]interface{}{"relation": refs}, true

	case TypePeople:
		ids := stringList(raw)
		users := make([]map[string]interface{}, 0, len(ids))
		for _, id := range ids {
			users = append(users, map[string]interface{}{"id": id})
		}
		return map[string]interface{}{"people": users}, true

	case TypeURL, TypeEmail, TypePhoneNumber:
		s := toString(raw)
		if s == "" {
			return map[string]interface{}{string(t): nil}, true
		}
		return map[string]interface{}{string(t): s}, true

	case TypeFiles:
		// File uploads go through a separate upstream surface; writes here
		// only ever clear the property.
		return map[string]interface{}{"files": []interface{}{}}, true
	}

	// Unknown column type: degrade to rich_text so schema drift upstream
	// does not fail writes. Callers log the fallback.
	return map[string]interface{}{"rich_text": textRuns(raw)}, true
}

// FromWireValue converts an upstream property value back to a plain value,
// dispatching on the wire value's own type tag rather than the schema's
// declared type so drifted schemas still read cleanly. The second return is
// false for types this gateway cannot flatten.
func FromWireValue(prop map[string]interface{}) (interface{}, bool) {
	typeTag, _ := prop["type"].(string)

	switch ColumnType(typeTag) {
	case TypeTitle, TypeRichText:
		return plainText(prop[typeTag]), true

	case TypeCheckbox:
		checked, _ := prop["checkbox"].(bool)
		return checked, true

	case TypeSelect:
		if sel := subMap(prop, "select"); sel != nil {
			if name, ok := sel["name"].(string); ok {
				return name, true
			}
		}
		return nil, true

	case TypeMultiSelect:
		items, _ := prop["multi_select"].([]interface{})
		names := make([]string, 0, len(items))
		for _, item := range items {
			if opt, ok := item.(map[string]interface{}); ok {
				if name, ok := opt["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
		return names, true

	case TypeDate:
		if date := subMap(prop, "date"); date != nil {
			if start, ok := date["start"].(string); ok {
				return start, true
			}
		}
		return nil, true

	case TypeNumber:
		if n, ok := prop["number"].(float64); ok {
			return n, true
		}
		return nil, true

	case TypeURL, TypeEmail, TypePhoneNumber:
		if s, ok := prop[typeTag].(string); ok {
			return s, true
		}
		return "", true

	case TypeRelation:
		items, _ := prop["relation"].([]interface{})
		ids := make([]string, 0, len(items))
		for _, item := range items {
			if ref, ok := item.(map[string]interface{}); ok {
				if id, ok := ref["id"].(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids, true

	case TypePeople:
		items, _ := prop["people"].([]interface{})
		ids := make([]string, 0, len(items))
		for _, item := range items {
			if user, ok := item.(map[string]interface{}); ok {
				if id, ok := user["id"].(string); ok {
					ids = append(ids, id)
				}
			}
		}
		return ids, true

	case TypeFiles:
		items, _ := prop["files"].([]interface{})
		urls := make([]string, 0, len(items))
		for _, item := range items {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			// Internal uploads carry file.url, external links external.url;
			// prefer the internal one when both appear.
			if f := subMap(entry, "file"); f != nil {
				if u, ok := f["url"].(string); ok {
					urls = append(urls, u)
					continue
				}
			}
			if ext := subMap(entry, "external"); ext != nil {
				if u, ok := ext["url"].(string); ok {
					urls = append(urls, u)
				}
			}
		}
		return urls, true

	case TypeCreatedTime:
		if s, ok := prop["created_time"].(string); ok {
			return s, true
		}
	case TypeLastEditedTime:
		if s, ok := prop["last_edited_time"].(string); ok {
			return s, true
		}
	}

	return nil, false
}

// textRuns builds the rich-text container for a value, empty on nil/empty
// string so the property is explicitly cleared rather than left out.
func textRuns(raw interface{}) []interface{} {
	s := toString(raw)
	if s == "" {
		return []interface{}{}
	}
	return []interface{}{
		map[string]interface{}{
			"text": map[string]interface{}{"content": s},
		},
	}
}

// plainText extracts the first text run of a title/rich_text value
func plainText(raw interface{}) string {
	runs, _ := raw.([]interface{})
	for _, run := range runs {
		if m, ok := run.(map[string]interface{}); ok {
			if s, ok := m["plain_text"].(string); ok {
				return s
			}
		}
	}
	return ""
}

func toString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toBool coerces the value to a boolean, decoding "true"/"false" strings
// case-insensitively before falling back to truthiness.
func toBool(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true
		case "false", "":
			return false
		}
		return true
	case float64:
		return v != 0
	default:
		return true
	}
}

// toNumber coerces to a numeric value, nil when unparsable
func toNumber(raw interface{}) interface{} {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n
		}
		return nil
	default:
		return nil
	}
}

// selectName extracts a single select option name, taking the first element
// when an array was given by mistake
func selectName(raw interface{}) string {
	if list, ok := raw.([]interface{}); ok {
		if len(list) == 0 {
			return ""
		}
		return strings.TrimSpace(toString(list[0]))
	}
	return strings.TrimSpace(toString(raw))
}

// stringList coerces to a list of strings, treating a bare string as a
// single-element list and anything else as empty
func stringList(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}
