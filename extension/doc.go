// Package extension provides the registries resolved once at startup: activity,
// trigger and timer behaviour factories keyed by kind tag, and variable data
// types keyed by name.
package extension
