package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the "db" tag names of T, descending into
// embedded structs. Meant for package initialization.
func ExtractDBColumns[T any]() []string {
	var zero T
	var cols []string
	for _, f := range fieldsOf(reflect.TypeOf(zero)) {
		cols = append(cols, f.column)
	}
	return cols
}

type dbField struct {
	index  []int
	column string
}

var fieldCache sync.Map // reflect.Type -> []dbField

// fieldsOf returns the tagged fields of t with their index paths, cached per type.
func fieldsOf(t reflect.Type) []dbField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]dbField)
	}
	var fields []dbField
	if t.Kind() == reflect.Struct {
		fields = collectFields(t, nil)
	}
	fieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int) []dbField {
	var out []dbField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(f.Type, path)...)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, dbField{index: path, column: tag})
	}
	return out
}

// StructToMap converts a struct (or pointer to one) to column -> value
// using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	fields := fieldsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}
