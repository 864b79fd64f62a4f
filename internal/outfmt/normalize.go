package outfmt

import (
	"encoding/json"
	"reflect"
)

// toWire converts a command result into the generic shape jq and templates
// work on: objects keyed by their JSON field names, arrays for lists. Raw
// JSON passes through untouched.
func toWire(v any) (any, error) {
	var data []byte
	switch raw := v.(type) {
	case json.RawMessage:
		data = raw
	case []byte:
		data = raw
	default:
		var err error
		if data, err = json.Marshal(emptyListForNil(v)); err != nil {
			return nil, err
		}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// emptyListForNil keeps an empty catalog printing as [] rather than null,
// so `.[]` and `length` work on every list command.
func emptyListForNil(v any) any {
	if v == nil {
		return v
	}
	if _, ok := v.([]byte); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}
	}
	return v
}
