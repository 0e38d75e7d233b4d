package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/bpmn/internal/idgen"
	"github.com/viant/bpmn/model"
	"github.com/viant/bpmn/service/dao"
)

// FS stores each workflow as a JSON document under a base URL
type FS struct {
	baseURL string
	fs      afs.Service
	logger  zerolog.Logger
	mu      sync.RWMutex
}

var _ Store = (*FS)(nil)

func (s *FS) GenerateID() string {
	return idgen.New()
}

func (s *FS) Insert(ctx context.Context, workflow *model.Workflow) error {
	if workflow == nil {
		return dao.ErrNilEntity
	}
	if workflow.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.workflowURL(workflow.ID)
	if exists, _ := s.fs.Exists(ctx, URL); exists {
		return fmt.Errorf("workflow %v: %w", workflow.ID, dao.ErrInvalidID)
	}
	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %v: %w", workflow.ID, err)
	}
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save workflow to %s: %w", URL, err)
	}
	return nil
}

func (s *FS) Load(ctx context.Context, id string) (*model.Workflow, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.workflowURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check workflow %v: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("workflow %v: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %v: %w", id, err)
	}
	ret := &model.Workflow{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %v: %w", id, err)
	}
	return ret, nil
}

func (s *FS) FindLatestIDBySource(ctx context.Context, sourceWorkflowID string) (string, error) {
	workflows, err := s.list(ctx)
	if err != nil {
		return "", err
	}
	if ret := latest(workflows, sourceWorkflowID); ret != nil {
		return ret.ID, nil
	}
	return "", dao.ErrNotFound
}

func (s *FS) Find(ctx context.Context, query *model.WorkflowQuery) ([]*model.Workflow, error) {
	workflows, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	return filter(workflows, query), nil
}

func (s *FS) Delete(ctx context.Context, query *model.WorkflowQuery) (int, error) {
	matched, err := s.Find(ctx, query)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, candidate := range matched {
		if err = s.fs.Delete(ctx, s.workflowURL(candidate.ID)); err != nil {
			return 0, fmt.Errorf("failed to delete workflow %v: %w", candidate.ID, err)
		}
	}
	return len(matched), nil
}

func (s *FS) list(ctx context.Context) ([]*model.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	var result []*model.Workflow
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("failed to read workflow")
			continue
		}
		workflow := &model.Workflow{}
		if err = json.Unmarshal(data, workflow); err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("failed to unmarshal workflow")
			continue
		}
		result = append(result, workflow)
	}
	return result, nil
}

func (s *FS) workflowURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// NewFS creates a workflow store rooted at baseURL
func NewFS(ctx context.Context, baseURL string, logger zerolog.Logger) (*FS, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL was empty")
	}
	fs := afs.New()
	if exists, _ := fs.Exists(ctx, baseURL); !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create %v: %w", baseURL, err)
		}
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = url.Normalize(path.Clean(baseURL), file.Scheme)
	}
	return &FS{baseURL: baseURL, fs: fs, logger: logger}, nil
}
