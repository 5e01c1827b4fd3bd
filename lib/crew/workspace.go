// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is the directory tree the crew writes into. Commands run in
// the current project directory, which starts as the root and moves to
// the cloned repository once one is created.
type Workspace struct {
	root string

	mu      sync.Mutex
	project string
}

// NewWorkspace creates root if needed and returns a workspace on it.
func NewWorkspace(root string) (*Workspace, error) {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("crew: resolving workspace: %w", err)
	}
	if err := os.MkdirAll(absolute, 0o755); err != nil {
		return nil, fmt.Errorf("crew: creating workspace: %w", err)
	}
	return &Workspace{root: absolute}, nil
}

// Root returns the workspace root.
func (w *Workspace) Root() string { return w.root }

// Dir returns the current project directory, or the root when no
// project has been set.
func (w *Workspace) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.project == "" {
		return w.root
	}
	return w.project
}

// SetProject makes dir the current project directory.
func (w *Workspace) SetProject(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.project = dir
}

// Resolve interprets path relative to the current project directory.
// An empty path is the project directory itself.
func (w *Workspace) Resolve(path string) string {
	switch {
	case path == "":
		return w.Dir()
	case filepath.IsAbs(path):
		return filepath.Clean(path)
	default:
		return filepath.Join(w.Dir(), path)
	}
}
