package aws

import (
	"reflect"
	"time"
	"unicode"
)

var timeType = reflect.TypeOf(time.Time{})

// project converts an SDK value into plain maps and slices. Struct fields
// become lowerCamel keys, nil pointers and empty collections are left out,
// and slices of structs come back as []map[string]any.
func project(v any) any {
	return projectValue(reflect.ValueOf(v))
}

func projectValue(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).UTC().Format(time.RFC3339Nano)
		}
		return projectStruct(v)

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes()
		}
		if isStructElem(v.Type().Elem()) {
			out := make([]map[string]any, 0, v.Len())
			for i := 0; i < v.Len(); i++ {
				if m, ok := projectValue(v.Index(i)).(map[string]any); ok {
					out = append(out, m)
				}
			}
			return out
		}
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if item := projectValue(v.Index(i)); item != nil {
				out = append(out, item)
			}
		}
		return out

	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			if item := projectValue(iter.Value()); item != nil {
				out[iter.Key().String()] = item
			}
		}
		return out

	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return nil
	}
}

func projectStruct(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if item := projectValue(v.Field(i)); item != nil {
			out[lowerCamel(field.Name)] = item
		}
	}
	return out
}

func isStructElem(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

// lowerCamel lowers the leading capital run: Name -> name, CSSColor -> cssColor.
func lowerCamel(name string) string {
	runes := []rune(name)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
