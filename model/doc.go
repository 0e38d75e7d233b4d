// Package model contains the authoring-time representation of workflow
// definitions together with the request, query and snapshot types exchanged
// with the engine.
//
// A workflow is typically built programmatically or loaded from a YAML or
// JSON document into the structures defined in the `graph` and `state`
// sub-packages. The root model package aggregates those building blocks so
// that they can be referenced with a single import.
package model
