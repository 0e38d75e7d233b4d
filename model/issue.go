package model

import (
	"fmt"
	"strings"
)

// Severity of a parse issue
type Severity string

const (
	IssueError   Severity = "error"
	IssueWarning Severity = "warning"
)

// Issue is a structured validation problem reported by the parser
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (i *Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Path, i.Message)
}

// Issues is a collection of parse issues
type Issues []*Issue

// AddError appends an error issue
func (i *Issues) AddError(path string, format string, args ...interface{}) {
	*i = append(*i, &Issue{Severity: IssueError, Path: path, Message: fmt.Sprintf(format, args...)})
}

// AddWarning appends a warning issue
func (i *Issues) AddWarning(path string, format string, args ...interface{}) {
	*i = append(*i, &Issue{Severity: IssueWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// HasErrors returns true if any issue has error severity
func (i Issues) HasErrors() bool {
	for _, issue := range i {
		if issue.Severity == IssueError {
			return true
		}
	}
	return false
}

// Errors returns error issues only
func (i Issues) Errors() Issues {
	var result Issues
	for _, issue := range i {
		if issue.Severity == IssueError {
			result = append(result, issue)
		}
	}
	return result
}

func (i Issues) String() string {
	lines := make([]string, 0, len(i))
	for _, issue := range i {
		lines = append(lines, issue.String())
	}
	return strings.Join(lines, "\n")
}
