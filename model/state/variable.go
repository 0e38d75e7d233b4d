package state

// Variable declares a named workflow or scope variable
type Variable struct {
	ID       string      `json:"id" yaml:"id"`
	DataType string      `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Default  interface{} `json:"default,omitempty" yaml:"default,omitempty"`
}

// Variables is a collection of variable declarations
type Variables []*Variable

// Add appends a variable declaration
func (v *Variables) Add(id string, dataType string) *Variable {
	ret := &Variable{ID: id, DataType: dataType}
	*v = append(*v, ret)
	return ret
}

// Get retrieves a variable by id
func (v Variables) Get(id string) (*Variable, bool) {
	for _, candidate := range v {
		if candidate.ID == id {
			return candidate, true
		}
	}
	return nil, false
}

// Defaults returns declared default values keyed by variable id
func (v Variables) Defaults() map[string]interface{} {
	result := make(map[string]interface{})
	for _, candidate := range v {
		if candidate.Default != nil {
			result[candidate.ID] = candidate.Default
		}
	}
	return result
}
