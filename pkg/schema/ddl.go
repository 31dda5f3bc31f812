package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
func generateDDL(model any, tableName string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

// Specimen DDL methods
func (s Specimen) TableDDL() string {
	return generateDDL(s, "specimens")
}

func (s Specimen) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_specimens_hash ON specimens(hash);",
		"CREATE INDEX IF NOT EXISTS idx_specimens_taxon_key ON specimens(verified_taxon_key);",
		"CREATE INDEX IF NOT EXISTS idx_specimens_checks ON specimens(checks);",
		"CREATE INDEX IF NOT EXISTS idx_specimens_include ON specimens(include);",
	}
}

func (s Specimen) TableName() string {
	return "specimens"
}

// SchemaVersion DDL methods
func (sv SchemaVersion) TableDDL() string {
	return generateDDL(sv, "schema_versions")
}

func (sv SchemaVersion) IndexDDL() []string {
	return []string{}
}

func (sv SchemaVersion) TableName() string {
	return "schema_versions"
}

// AllDDL returns statements creating all tables and their indexes.
func AllDDL() []string {
	var res []string
	for _, m := range []DDLGenerator{Specimen{}, SchemaVersion{}} {
		res = append(res, m.TableDDL())
		res = append(res, m.IndexDDL()...)
	}
	return res
}

// Columns returns column names of the model in field order.
func Columns(model any) []string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var res []string
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("db"); tag != "" {
			res = append(res, tag)
		}
	}
	return res
}

// Values returns field values of the model in the order of Columns.
func Values(model any) []any {
	v := reflect.Indirect(reflect.ValueOf(model))
	t := v.Type()
	var res []any
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("db") != "" {
			res = append(res, v.Field(i).Interface())
		}
	}
	return res
}

// Pointers returns pointers to fields of the model in the order of
// Columns, ready for rows.Scan. The model must be a pointer.
func Pointers(model any) []any {
	v := reflect.ValueOf(model).Elem()
	t := v.Type()
	var res []any
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("db") != "" {
			res = append(res, v.Field(i).Addr().Interface())
		}
	}
	return res
}
