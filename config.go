package bpmn

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/runtime/retry"
	"github.com/viant/bpmn/service/meta"
	"github.com/viant/bpmn/service/processor"
)

// Config is a serialisable representation of the engine configuration. It can
// be loaded from YAML with LoadConfig; zero nested values fall back to package
// defaults.
type Config struct {
	// EngineID identifies this node as instance lock owner
	EngineID  string           `json:"engineId" yaml:"engineId"`
	Lock      retry.Policy     `json:"lock" yaml:"lock"`
	Scheduler SchedulerConfig  `json:"scheduler" yaml:"scheduler"`
	Processor processor.Config `json:"processor" yaml:"processor"`
	// WorkflowStoreURL selects the afs backed workflow store; memory when empty
	WorkflowStoreURL string `json:"workflowStoreURL,omitempty" yaml:"workflowStoreURL,omitempty"`
}

// SchedulerConfig controls the due job poller
type SchedulerConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	PollInterval time.Duration `json:"pollInterval" yaml:"pollInterval"`
}

// DefaultConfig returns a Config populated with the package defaults. The
// engine id is derived from the host name.
func DefaultConfig() *Config {
	host, _ := os.Hostname()
	return &Config{
		EngineID: idgen.Suffixed(host),
		Lock:     retry.DefaultPolicy(),
		Scheduler: SchedulerConfig{
			Enabled:      true,
			PollInterval: time.Second,
		},
		Processor: processor.DefaultConfig(),
	}
}

// Validate returns an error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.EngineID == "" {
		return fmt.Errorf("engineId was empty")
	}
	if c.Lock.MaxAttempts <= 0 {
		return fmt.Errorf("lock.maxAttempts must be > 0")
	}
	switch c.Lock.Backoff {
	case "", retry.BackoffFixed, retry.BackoffExponential:
	default:
		return fmt.Errorf("unsupported lock.backoff: %v", c.Lock.Backoff)
	}
	if c.Processor.WorkerCount <= 0 {
		return fmt.Errorf("processor.workers must be > 0")
	}
	if c.Scheduler.Enabled && c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler.pollInterval must be > 0")
	}
	return nil
}

// LoadConfig decodes a YAML document over the defaults and validates it
func LoadConfig(ctx context.Context, metaService *meta.Service, location string) (*Config, error) {
	ret := DefaultConfig()
	if err := metaService.Load(ctx, location, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", location, err)
	}
	return ret, nil
}
