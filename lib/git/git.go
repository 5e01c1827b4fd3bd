// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the crew's
// source-control steps: cloning the project repository, setting the
// commit identity, and committing and pushing generated code. All
// commands target a specific repository directory via the -C flag,
// which every Repository method injects.
//
// Commands never prompt: GIT_TERMINAL_PROMPT=0 is set so a missing
// credential fails the command instead of blocking the agent forever.
// Credentials embedded in remote URLs are redacted from errors.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the working tree has no
// changes.
var ErrNothingToCommit = errors.New("git: nothing to commit")

// Identity is the author and committer recorded on commits.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity is used for commits made by the crew.
var DefaultIdentity = Identity{Name: "CrewAI Agent", Email: "crewai@smarthomebobby.local"}

// Repository represents a git working tree at a specific directory.
// There is no default directory; callers must always specify which
// repository they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Clone clones url into dir and returns the new Repository. dir must
// not exist or be empty.
func Clone(ctx context.Context, url, dir string) (*Repository, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", "clone", url, dir)
	command.Env = environment()
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("git clone %s into %s: %w (stderr: %s)",
			Redact(url), dir, err, Redact(strings.TrimSpace(stderr.String())))
	}
	return NewRepository(dir), nil
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := r.Command(ctx, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			Redact(strings.Join(args, " ")), r.dir, err, Redact(strings.TrimSpace(stderr.String())))
	}
	return stdout.String(), nil
}

// Command returns an *exec.Cmd for a git command without running it.
// The -C flag targeting this repository is prepended and the
// non-interactive environment is set.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Env = environment()
	return command
}

// ConfigureIdentity sets user.name and user.email in the repository's
// own config.
func (r *Repository) ConfigureIdentity(ctx context.Context, identity Identity) error {
	if _, err := r.Run(ctx, "config", "user.email", identity.Email); err != nil {
		return err
	}
	_, err := r.Run(ctx, "config", "user.name", identity.Name)
	return err
}

// HasChanges reports whether the working tree differs from HEAD,
// counting untracked files.
func (r *Repository) HasChanges(ctx context.Context) (bool, error) {
	output, err := r.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// AddAll stages every change in the working tree.
func (r *Repository) AddAll(ctx context.Context) error {
	_, err := r.Run(ctx, "add", "--all")
	return err
}

// Commit records the staged changes. It returns ErrNothingToCommit when
// nothing is staged.
func (r *Repository) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("git: empty commit message")
	}
	if _, err := r.Run(ctx, "diff", "--cached", "--quiet"); err == nil {
		return ErrNothingToCommit
	}
	_, err := r.Run(ctx, "commit", "--message", message)
	return err
}

// Push pushes the current branch to its upstream, setting the upstream
// on origin when none is configured.
func (r *Repository) Push(ctx context.Context) (string, error) {
	if _, err := r.Run(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}"); err == nil {
		return r.Run(ctx, "push")
	}
	return r.Run(ctx, "push", "--set-upstream", "origin", "HEAD")
}

// CommitAndPush stages everything, commits with message, and pushes.
// A clean working tree is not an error: nothing is committed and the
// push still runs, so earlier unpushed commits go out. It reports
// whether a commit was made.
func (r *Repository) CommitAndPush(ctx context.Context, identity Identity, message string) (bool, error) {
	if err := r.ConfigureIdentity(ctx, identity); err != nil {
		return false, err
	}
	if err := r.AddAll(ctx); err != nil {
		return false, err
	}
	committed := true
	if err := r.Commit(ctx, message); err != nil {
		if !errors.Is(err, ErrNothingToCommit) {
			return false, err
		}
		committed = false
	}
	if _, err := r.Push(ctx); err != nil {
		return committed, err
	}
	return committed, nil
}

var credentialPattern = regexp.MustCompile(`(https?://)[^@/\s]+@`)

// Redact replaces credentials embedded in URLs with "***".
func Redact(text string) string {
	return credentialPattern.ReplaceAllString(text, "${1}***@")
}

func environment() []string {
	return append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
}
