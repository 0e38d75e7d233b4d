package execution

import (
	"github.com/rs/zerolog"
)

// Runtime carries engine node identity and collaborators into an instance
type Runtime struct {
	EngineID  string
	Logger    zerolog.Logger
	Listeners []Listener
}

// NewRuntime creates a runtime with a no-op logger
func NewRuntime(engineID string) *Runtime {
	return &Runtime{EngineID: engineID, Logger: zerolog.Nop()}
}
