package validation

import (
	"reflect"
	"strings"
)

// yamlName reports fields by their yaml key so messages match what users
// write in config files.
func yamlName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}
