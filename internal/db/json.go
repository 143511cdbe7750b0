package db

import (
	"encoding/json"
	"reflect"
)

// JSONB encodes v for a nullable jsonb column. Nil pointers and empty maps become NULL.
func JSONB(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
	case reflect.Map, reflect.Slice:
		if rv.Len() == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// DecodeJSONB decodes a nullable jsonb column into dst. NULL leaves dst untouched.
func DecodeJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
