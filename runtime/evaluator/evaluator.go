// Package evaluator evaluates transition guard expressions over instance variables.
//
// Expressions use Go syntax: literals, variable identifiers, selectors and
// index expressions over maps, slices and structs, comparison, arithmetic and
// logical operators and the len() builtin. A surrounding ${...} is ignored.
package evaluator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
)

// Resolver looks up a variable by name
type Resolver func(name string) (interface{}, bool)

// Validate parses the expression and checks that it only uses supported constructs
func Validate(expr string) error {
	node, err := parse(expr)
	if err != nil {
		return err
	}
	var unsupported ast.Node
	ast.Inspect(node, func(n ast.Node) bool {
		switch actual := n.(type) {
		case nil, *ast.BasicLit, *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr,
			*ast.ParenExpr, *ast.UnaryExpr, *ast.BinaryExpr:
			return true
		case *ast.CallExpr:
			if ident, ok := actual.Fun.(*ast.Ident); ok && ident.Name == "len" && len(actual.Args) == 1 {
				return true
			}
		}
		if unsupported == nil {
			unsupported = n
		}
		return false
	})
	if unsupported != nil {
		return fmt.Errorf("unsupported expression %T in %q", unsupported, expr)
	}
	return nil
}

// EvaluateBool evaluates a guard; a nil result is false
func EvaluateBool(expr string, resolve Resolver) (bool, error) {
	value, err := Evaluate(expr, resolve)
	if err != nil {
		return false, err
	}
	return truthy(value), nil
}

// Evaluate evaluates the expression
func Evaluate(expr string, resolve Resolver) (interface{}, error) {
	node, err := parse(expr)
	if err != nil {
		return nil, err
	}
	return (&evaluation{resolve: resolve}).eval(node)
}

func parse(expr string) (ast.Expr, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "${") && strings.HasSuffix(expr, "}") {
		expr = expr[2 : len(expr)-1]
	}
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	return node, nil
}

type evaluation struct {
	resolve Resolver
}

func (e *evaluation) eval(node ast.Expr) (interface{}, error) {
	switch actual := node.(type) {
	case *ast.ParenExpr:
		return e.eval(actual.X)
	case *ast.BasicLit:
		return literal(actual)
	case *ast.Ident:
		switch actual.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
		if e.resolve == nil {
			return nil, nil
		}
		value, _ := e.resolve(actual.Name)
		return value, nil
	case *ast.SelectorExpr:
		holder, err := e.eval(actual.X)
		if err != nil {
			return nil, err
		}
		return member(holder, actual.Sel.Name), nil
	case *ast.IndexExpr:
		holder, err := e.eval(actual.X)
		if err != nil {
			return nil, err
		}
		index, err := e.eval(actual.Index)
		if err != nil {
			return nil, err
		}
		return element(holder, index), nil
	case *ast.CallExpr:
		if ident, ok := actual.Fun.(*ast.Ident); ok && ident.Name == "len" && len(actual.Args) == 1 {
			value, err := e.eval(actual.Args[0])
			if err != nil {
				return nil, err
			}
			return length(value), nil
		}
		return nil, fmt.Errorf("unsupported call")
	case *ast.UnaryExpr:
		value, err := e.eval(actual.X)
		if err != nil {
			return nil, err
		}
		switch actual.Op {
		case token.NOT:
			return !truthy(value), nil
		case token.SUB:
			number, ok := toFloat(value)
			if !ok {
				return nil, fmt.Errorf("cannot negate %T", value)
			}
			return -number, nil
		}
		return nil, fmt.Errorf("unsupported operator %v", actual.Op)
	case *ast.BinaryExpr:
		return e.binary(actual)
	}
	return nil, fmt.Errorf("unsupported expression %T", node)
}

func (e *evaluation) binary(node *ast.BinaryExpr) (interface{}, error) {
	left, err := e.eval(node.X)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case token.LAND:
		if !truthy(left) {
			return false, nil
		}
		right, err := e.eval(node.Y)
		return truthy(right), err
	case token.LOR:
		if truthy(left) {
			return true, nil
		}
		right, err := e.eval(node.Y)
		return truthy(right), err
	}
	right, err := e.eval(node.Y)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case token.EQL:
		return equal(left, right), nil
	case token.NEQ:
		return !equal(left, right), nil
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		cmp, ok := compare(left, right)
		if !ok {
			return false, nil
		}
		switch node.Op {
		case token.LSS:
			return cmp < 0, nil
		case token.LEQ:
			return cmp <= 0, nil
		case token.GTR:
			return cmp > 0, nil
		}
		return cmp >= 0, nil
	case token.ADD:
		if l, ok := left.(string); ok {
			return l + fmt.Sprint(right), nil
		}
	}
	l, lok := toFloat(left)
	r, rok := toFloat(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %v requires numbers, got %T and %T", node.Op, left, right)
	}
	switch node.Op {
	case token.ADD:
		return l + r, nil
	case token.SUB:
		return l - r, nil
	case token.MUL:
		return l * r, nil
	case token.QUO:
		if r == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
	return nil, fmt.Errorf("unsupported operator %v", node.Op)
}

func literal(lit *ast.BasicLit) (interface{}, error) {
	switch lit.Kind {
	case token.INT:
		return strconv.ParseInt(lit.Value, 0, 64)
	case token.FLOAT:
		return strconv.ParseFloat(lit.Value, 64)
	case token.STRING, token.CHAR:
		return strconv.Unquote(lit.Value)
	}
	return nil, fmt.Errorf("unsupported literal %v", lit.Value)
}

func member(holder interface{}, name string) interface{} {
	if holder == nil {
		return nil
	}
	value := reflect.ValueOf(holder)
	for value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil
		}
		entry := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if !entry.IsValid() {
			return nil
		}
		return entry.Interface()
	case reflect.Struct:
		field := value.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			return nil
		}
		return field.Interface()
	}
	return nil
}

func element(holder interface{}, index interface{}) interface{} {
	if key, ok := index.(string); ok {
		return member(holder, key)
	}
	position, ok := toFloat(index)
	if !ok || holder == nil {
		return nil
	}
	value := reflect.ValueOf(holder)
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return nil
	}
	i := int(position)
	if i < 0 || i >= value.Len() {
		return nil
	}
	return value.Index(i).Interface()
}

func length(value interface{}) int64 {
	if value == nil {
		return 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return int64(rv.Len())
	}
	return 0
}

func truthy(value interface{}) bool {
	switch actual := value.(type) {
	case nil:
		return false
	case bool:
		return actual
	case string:
		return actual != "" && !strings.EqualFold(actual, "false")
	}
	if number, ok := toFloat(value); ok {
		return number != 0
	}
	return true
}

func equal(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := toFloat(left); ok {
		if r, ok := toFloat(right); ok {
			return l == r
		}
	}
	if l, ok := left.(string); ok {
		return l == fmt.Sprint(right)
	}
	if r, ok := right.(string); ok {
		return fmt.Sprint(left) == r
	}
	return reflect.DeepEqual(left, right)
}

func compare(left, right interface{}) (int, bool) {
	if l, ok := toFloat(left); ok {
		if r, ok := toFloat(right); ok {
			switch {
			case l < r:
				return -1, true
			case l > r:
				return 1, true
			}
			return 0, true
		}
	}
	l, lok := left.(string)
	r, rok := right.(string)
	if !lok || !rok {
		return 0, false
	}
	return strings.Compare(l, r), true
}

func toFloat(value interface{}) (float64, bool) {
	switch actual := value.(type) {
	case int:
		return float64(actual), true
	case int8:
		return float64(actual), true
	case int16:
		return float64(actual), true
	case int32:
		return float64(actual), true
	case int64:
		return float64(actual), true
	case uint:
		return float64(actual), true
	case uint8:
		return float64(actual), true
	case uint16:
		return float64(actual), true
	case uint32:
		return float64(actual), true
	case uint64:
		return float64(actual), true
	case float32:
		return float64(actual), true
	case float64:
		return actual, true
	}
	return 0, false
}
