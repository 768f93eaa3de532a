// Package omitnilpointers flattens optional fields before they are written to
// a redis hash.
package omitnilpointers

import "reflect"

// OmitNilPointers returns a copy of fields without nil values and nil
// pointers. Non-nil pointers are replaced by the values they point to.
func OmitNilPointers(fields map[string]any) map[string]any {
	omitted := make(map[string]any, len(fields))
	for key, value := range fields {
		if v, ok := deref(value); ok {
			omitted[key] = v
		}
	}

	return omitted
}

func deref(value any) (any, bool) {
	if value == nil {
		return nil, false
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	return v.Interface(), true
}
