package extension

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/bpmn/runtime/execution"
)

func TestTypes_Lookup(t *testing.T) {
	var testCases = []struct {
		description string
		dataType    string
		expect      reflect.Type
	}{
		{description: "builtin", dataType: "int", expect: reflect.TypeOf(0)},
		{description: "time", dataType: "time.Time", expect: reflect.TypeOf(time.Time{})},
		{description: "slice", dataType: "[]string", expect: reflect.TypeOf([]string{})},
		{description: "map", dataType: "map[string]float64", expect: reflect.TypeOf(map[string]float64{})},
		{description: "unknown", dataType: "complex128"},
		{description: "unsupported modifier", dataType: "map[int]string"},
	}
	types := NewTypes()
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual := types.Lookup(testCase.dataType)
			if testCase.expect == nil {
				assert.Nil(t, actual)
				return
			}
			require.NotNil(t, actual)
			assert.Equal(t, testCase.expect, actual.Type)
		})
	}
}

func TestRegistry_Activity(t *testing.T) {
	registry := NewRegistry()
	created := 0
	registry.RegisterActivity("b", func() execution.ActivityType {
		created++
		return nil
	})
	registry.RegisterActivity("a", func() execution.ActivityType { return nil })

	assert.Equal(t, []string{"a", "b"}, registry.ActivityKinds())
	_, ok := registry.Activity("b")
	assert.True(t, ok)
	assert.Equal(t, 1, created)
	_, ok = registry.Activity("missing")
	assert.False(t, ok)
}
