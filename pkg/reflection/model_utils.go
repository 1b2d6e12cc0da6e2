package reflection

import (
	"reflect"
	"strings"
)

// IDNameProvider lets a model name its identifier field explicitly.
type IDNameProvider interface {
	GetIDName() string
}

var idNameProviderType = reflect.TypeOf((*IDNameProvider)(nil)).Elem()

// ModelType unwraps pointers, slices and arrays down to the model's struct type.
// It returns nil when no struct type is found.
func ModelType(model any) reflect.Type {
	modelType, ok := model.(reflect.Type)
	if !ok {
		modelType = reflect.TypeOf(model)
	}

	for modelType != nil && (modelType.Kind() == reflect.Pointer || modelType.Kind() == reflect.Slice || modelType.Kind() == reflect.Array) {
		modelType = modelType.Elem()
	}

	if modelType == nil || modelType.Kind() != reflect.Struct {
		return nil
	}
	return modelType
}

// PrimaryKeyFields returns the identifier fields of a model type.
// Priority: GetIDName field -> bun pk tags -> gorm primaryKey tags -> a field named ID.
// Embedded structs are searched recursively, their fields are reported flattened.
func PrimaryKeyFields(model any) []reflect.StructField {
	modelType := ModelType(model)
	if modelType == nil {
		return nil
	}

	if name := providedIDName(modelType); name != "" {
		if field, ok := findFieldByName(modelType, name); ok {
			return []reflect.StructField{field}
		}
	}

	if fields := collectPrimaryKeys(modelType, "bun"); len(fields) > 0 {
		return fields
	}

	if fields := collectPrimaryKeys(modelType, "gorm"); len(fields) > 0 {
		return fields
	}

	if field, ok := findFieldByName(modelType, "id"); ok {
		return []reflect.StructField{field}
	}

	return nil
}

// Fields returns every persistent field of a model type, embedded structs flattened.
// Fields tagged bun:"-", gorm:"-" and unexported fields are skipped.
func Fields(model any) []reflect.StructField {
	modelType := ModelType(model)
	if modelType == nil {
		return nil
	}
	var fields []reflect.StructField
	collectFields(modelType, &fields)
	return fields
}

func collectFields(typ reflect.Type, fields *[]reflect.StructField) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		if embedded, ok := embeddedStruct(field); ok {
			collectFields(embedded, fields)
			continue
		}

		if !field.IsExported() || field.Tag.Get("bun") == "-" || field.Tag.Get("gorm") == "-" {
			continue
		}

		*fields = append(*fields, field)
	}
}

// providedIDName asks the model for its identifier column through IDNameProvider.
func providedIDName(typ reflect.Type) string {
	if typ.Implements(idNameProviderType) {
		return reflect.Zero(typ).Interface().(IDNameProvider).GetIDName()
	}
	if reflect.PointerTo(typ).Implements(idNameProviderType) {
		return reflect.New(typ).Interface().(IDNameProvider).GetIDName()
	}
	return ""
}

// collectPrimaryKeys recursively collects fields flagged as primary key by ormType tags
func collectPrimaryKeys(typ reflect.Type, ormType string) []reflect.StructField {
	var fields []reflect.StructField

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		if embedded, ok := embeddedStruct(field); ok {
			fields = append(fields, collectPrimaryKeys(embedded, ormType)...)
			continue
		}

		switch ormType {
		case "bun":
			if isBunPrimaryKey(field.Tag.Get("bun")) {
				fields = append(fields, field)
			}
		case "gorm":
			if isGormPrimaryKey(field.Tag.Get("gorm")) {
				fields = append(fields, field)
			}
		}
	}

	return fields
}

// findFieldByName matches a field by Go name or column name, case-insensitively
func findFieldByName(typ reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		if embedded, ok := embeddedStruct(field); ok {
			if found, ok := findFieldByName(embedded, name); ok {
				return found, true
			}
			continue
		}

		if strings.EqualFold(field.Name, name) || strings.EqualFold(ColumnName(field), name) {
			return field, true
		}
	}

	return reflect.StructField{}, false
}

// embeddedStruct unwraps an anonymous struct field. bun.BaseModel style markers
// without exported fields are still walked, they simply contribute nothing.
func embeddedStruct(field reflect.StructField) (reflect.Type, bool) {
	if !field.Anonymous {
		return nil, false
	}
	fieldType := field.Type
	if fieldType.Kind() == reflect.Pointer {
		fieldType = fieldType.Elem()
	}
	if fieldType.Kind() != reflect.Struct {
		return nil, false
	}
	return fieldType, true
}

// ColumnName extracts the column name from a struct field
// Priority: bun tag -> gorm tag -> json tag -> lowercase field name
func ColumnName(field reflect.StructField) string {
	bunTag := field.Tag.Get("bun")
	if bunTag != "" && bunTag != "-" {
		if colName := ExtractColumnFromBunTag(bunTag); colName != "" {
			return colName
		}
	}

	gormTag := field.Tag.Get("gorm")
	if gormTag != "" && gormTag != "-" {
		if colName := ExtractColumnFromGormTag(gormTag); colName != "" {
			return colName
		}
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag != "" && jsonTag != "-" {
		parts := strings.Split(jsonTag, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0]
		}
	}

	return strings.ToLower(field.Name)
}

// ExtractColumnFromGormTag extracts the column name from a gorm tag
// Example: "column:id;primaryKey" -> "id"
func ExtractColumnFromGormTag(tag string) string {
	parts := strings.Split(tag, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if colName, found := strings.CutPrefix(part, "column:"); found {
			return colName
		}
	}
	return ""
}

// ExtractColumnFromBunTag extracts the column name from a bun tag
// Example: "id,pk" -> "id"
// Example: ",pk" -> "" (will fall back to json tag)
func ExtractColumnFromBunTag(tag string) string {
	parts := strings.Split(tag, ",")
	if strings.HasPrefix(strings.ToLower(tag), "table:") || strings.HasPrefix(strings.ToLower(tag), "rel:") || strings.HasPrefix(strings.ToLower(tag), "join:") {
		return ""
	}
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return ""
}

// isBunPrimaryKey checks the options of a bun tag for the pk flag
// Example: "id,pk,autoincrement" -> true
func isBunPrimaryKey(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "pk" {
			return true
		}
	}
	return false
}

// isGormPrimaryKey checks a gorm tag for primaryKey (or the legacy primary_key)
// Example: "column:id;primaryKey" -> true
func isGormPrimaryKey(tag string) bool {
	parts := strings.Split(tag, ";")
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "primarykey" || part == "primary_key" {
			return true
		}
	}
	return false
}
