package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBool(t *testing.T) {
	variables := map[string]interface{}{
		"amount":   42,
		"approved": true,
		"customer": map[string]interface{}{"tier": "gold", "orders": []interface{}{1, 2, 3}},
		"name":     "bob",
	}
	resolve := func(name string) (interface{}, bool) {
		value, ok := variables[name]
		return value, ok
	}
	testCases := []struct {
		name   string
		expr   string
		expect bool
		hasErr bool
	}{
		{name: "numeric comparison", expr: "amount > 10", expect: true},
		{name: "mixed numeric", expr: "amount == 42.0", expect: true},
		{name: "logical", expr: "approved && amount < 100", expect: true},
		{name: "negation", expr: "!approved", expect: false},
		{name: "selector", expr: `customer.tier == "gold"`, expect: true},
		{name: "len", expr: "len(customer.orders) >= 3", expect: true},
		{name: "index", expr: `customer["tier"] != "silver"`, expect: true},
		{name: "wrapped", expr: "${amount - 2 == 40}", expect: true},
		{name: "missing variable", expr: "missing", expect: false},
		{name: "missing compared to nil", expr: "missing == nil", expect: true},
		{name: "short circuit", expr: "false && 1 / 0 > 1", expect: false},
		{name: "string truthiness", expr: "name", expect: true},
		{name: "syntax error", expr: "amount >", hasErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual, err := EvaluateBool(testCase.expr, resolve)
			if testCase.hasErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.expect, actual)
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		expr   string
		hasErr bool
	}{
		{name: "comparison", expr: "a.b >= 3 || c"},
		{name: "len", expr: "len(items) > 0"},
		{name: "function call", expr: "exec(cmd)", hasErr: true},
		{name: "closure", expr: "func() bool { return true }()", hasErr: true},
		{name: "syntax", expr: "a ==", hasErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := Validate(testCase.expr)
			assert.Equal(t, testCase.hasErr, err != nil)
		})
	}
}
