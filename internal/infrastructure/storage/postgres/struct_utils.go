package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns extracts all column names from struct "db" tags,
// descending into embedded structs. Called once per repository at construction.
//
// Usage:
//
//	columns := ExtractDBColumns[sale.Sale]()
//	// Returns: ["id", "sale_date", "sub_total", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := getOrCreateTypeMetadata(reflect.TypeOf(zero))
	return meta.columns()
}

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index int
	dbTag string
}

// typeMetadata contains cached reflection metadata for a type.
type typeMetadata struct {
	fields   []fieldInfo
	embedded []embeddedInfo
}

type embeddedInfo struct {
	index int
	meta  *typeMetadata
}

func (m *typeMetadata) columns() []string {
	cols := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		cols = append(cols, f.dbTag)
	}
	for _, e := range m.embedded {
		cols = append(cols, e.meta.columns()...)
	}
	return cols
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

// getOrCreateTypeMetadata returns cached metadata or computes it once per type.
func getOrCreateTypeMetadata(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() != reflect.Struct {
		typeCache.Store(t, meta)
		return meta
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			meta.embedded = append(meta.embedded, embeddedInfo{
				index: i,
				meta:  getOrCreateTypeMetadata(field.Type),
			})
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct to a column map using "db" tags.
// Fields without a tag or tagged "-" are skipped. The result feeds
// squirrel's SetMap directly.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := getOrCreateTypeMetadata(rv.Type())
	res := make(map[string]any, len(meta.fields))
	fillMap(rv, meta, res)
	return res
}

func fillMap(rv reflect.Value, meta *typeMetadata, res map[string]any) {
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
	for _, e := range meta.embedded {
		fillMap(rv.Field(e.index), e.meta, res)
	}
}
