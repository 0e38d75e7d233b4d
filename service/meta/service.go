// Package meta loads YAML documents (configuration, workflow definitions)
// through afs, expanding ${env.KEY} references before decoding.
package meta

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads YAML resources from any afs supported location
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// URL resolves a relative location against the base URL
func (s *Service) URL(location string) string {
	if s.baseURL != "" && url.IsRelative(location) {
		return url.Join(s.baseURL, location)
	}
	return location
}

// Load downloads location and decodes it into dest
func (s *Service) Load(ctx context.Context, location string, dest interface{}) error {
	URL := s.URL(location)
	data, err := s.fs.DownloadWithURL(ctx, URL, s.options...)
	if err != nil {
		return fmt.Errorf("failed to download %v: %w", URL, err)
	}
	return Decode(data, dest)
}

// Decode expands environment references and decodes YAML data into dest
func Decode(data []byte, dest interface{}) error {
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), dest); err != nil {
		return fmt.Errorf("failed to decode yaml: %w", err)
	}
	return nil
}

// New creates a meta service; relative locations resolve against baseURL
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
