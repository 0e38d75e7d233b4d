package extension

import (
	"reflect"
	"strings"
	"time"

	"github.com/viant/x"
)

var builtinTypes = map[string]reflect.Type{
	"string":    reflect.TypeOf(""),
	"bool":      reflect.TypeOf(true),
	"int":       reflect.TypeOf(0),
	"int64":     reflect.TypeOf(int64(0)),
	"float64":   reflect.TypeOf(0.0),
	"time.Time": reflect.TypeOf(time.Time{}),
	"interface": reflect.TypeOf((*interface{})(nil)).Elem(),
	"map":       reflect.TypeOf(map[string]interface{}{}),
}

// Types resolves variable data type names to Go types
type Types struct {
	x.Registry
}

// Lookup returns a data type; a leading [] or map[string] modifier wraps the element type
func (t *Types) Lookup(dataType string) *x.Type {
	typeModifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		typeModifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}
	var rType reflect.Type
	if builtin, ok := builtinTypes[dataType]; ok {
		rType = builtin
	} else if registered := t.Registry.Lookup(dataType); registered != nil {
		rType = registered.Type
	} else {
		return nil
	}
	switch strings.TrimSpace(typeModifier) {
	case "":
	case "[]":
		rType = reflect.SliceOf(rType)
	case "map[string]":
		rType = reflect.MapOf(reflect.TypeOf(""), rType)
	default:
		return nil
	}
	return x.NewType(rType)
}

// NewTypes creates a new types registry
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}
