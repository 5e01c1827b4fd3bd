// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/git"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/github"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/rpc"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/shell"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

const (
	CommandToolName     = "CommandExecutionTool"
	StakeholderToolName = "AskStakeholderTool"
	GitHubRepoToolName  = "CreateGithubRepoTool"
	GitCommitToolName   = "GitCommitPushTool"
)

// Decider is the decision call of an rpc.Bridge.
type Decider interface {
	Decide(ctx context.Context, params rpc.DecideParams) (string, error)
}

// RepositoryCreator is the repository call of a github.Client.
type RepositoryCreator interface {
	CreateRepository(ctx context.Context, request github.CreateRepositoryRequest) (*github.Repository, error)
}

func decodeArguments(arguments json.RawMessage, target any) error {
	if err := json.Unmarshal(arguments, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// CommandExecutionTool runs shell commands in the workspace.
func CommandExecutionTool(runner *shell.Runner, workspace *Workspace) toolserver.Tool {
	return &toolserver.Func{
		ToolName: CommandToolName,
		ToolDescription: fmt.Sprintf("Executes a shell command and returns its return code, stdout and stderr. "+
			"Use it to create files, build, test and inspect the project. Commands run in the current project "+
			"directory unless cwd is given, and are killed after %d seconds.", int(runner.Timeout().Seconds())),
		Schema: json.RawMessage(`{"type":"object","properties":{` +
			`"command":{"type":"string","description":"The shell command to execute"},` +
			`"cwd":{"type":"string","description":"Working directory, relative to the project directory"}},` +
			`"required":["command"]}`),
		Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var input struct {
				Command string `json:"command"`
				Cwd     string `json:"cwd"`
			}
			if err := decodeArguments(arguments, &input); err != nil {
				return "", err
			}
			if strings.TrimSpace(input.Command) == "" {
				return "", errors.New("command is required")
			}
			result, err := runner.Run(ctx, input.Command, workspace.Resolve(input.Cwd))
			var timeout *shell.TimeoutError
			if errors.As(err, &timeout) {
				return timeout.Error(), nil
			}
			if err != nil {
				return "", err
			}
			return result.Format(), nil
		},
	}
}

// AskStakeholderTool blocks on a decision call to the human stakeholder.
func AskStakeholderTool(decider Decider, logger *slog.Logger) toolserver.Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &toolserver.Func{
		ToolName: StakeholderToolName,
		ToolDescription: "Use this tool ONLY when you encounter a critical product decision, architectural choice, " +
			"or missing requirement that prevents you from continuing your work. " +
			"This tool will send a message to the stakeholder and block execution until they respond.",
		Schema: json.RawMessage(`{"type":"object","properties":{` +
			`"question":{"type":"string","description":"The highly specific question you need to ask the stakeholder."},` +
			`"context":{"type":"string","description":"Any relevant context, code snippets, or alternative choices necessary for the stakeholder to make a decision."}},` +
			`"required":["question","context"]}`),
		Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var input struct {
				Question string `json:"question"`
				Context  string `json:"context"`
			}
			if err := decodeArguments(arguments, &input); err != nil {
				return "", err
			}
			if strings.TrimSpace(input.Question) == "" {
				return "", errors.New("question is required")
			}
			logger.Info("asking stakeholder", "question", input.Question)
			answer, err := decider.Decide(ctx, rpc.DecideParams{
				Question: input.Question,
				Context:  input.Context,
				Priority: rpc.DefaultPriority,
			})
			if err != nil {
				return "", err
			}
			return "Stakeholder answered: " + answer, nil
		},
	}
}

// GitHubRepoConfig holds the dependencies of CreateGithubRepoTool.
type GitHubRepoConfig struct {
	// Creator is nil when no token is configured; the tool then tells
	// the agent so instead of failing the task.
	Creator RepositoryCreator

	// Token is embedded in the clone URL so later pushes authenticate.
	Token string

	Workspace *Workspace

	// Clone defaults to git.Clone.
	Clone func(ctx context.Context, url, dir string) (*git.Repository, error)

	Logger *slog.Logger
}

var repositoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// CreateGithubRepoTool creates a private repository, clones it into the
// workspace and makes the clone the current project directory.
func CreateGithubRepoTool(config GitHubRepoConfig) toolserver.Tool {
	if config.Clone == nil {
		config.Clone = git.Clone
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &toolserver.Func{
		ToolName: GitHubRepoToolName,
		ToolDescription: "Use this tool to create a brand new GitHub repository under your authenticated account. " +
			"The repository will ALWAYS be created as PRIVATE to protect the stakeholder's code and privacy. " +
			"It is initialized with a README and cloned into the workspace, and the clone becomes the " +
			"directory your commands run in.",
		Schema: json.RawMessage(`{"type":"object","properties":{` +
			`"repo_name":{"type":"string","description":"The name of the new GitHub repository to create (e.g. 'couple-chores-app')."},` +
			`"description":{"type":"string","description":"A short description of the repository."}},` +
			`"required":["repo_name","description"]}`),
		Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var input struct {
				RepoName    string `json:"repo_name"`
				Description string `json:"description"`
			}
			if err := decodeArguments(arguments, &input); err != nil {
				return "", err
			}
			if config.Creator == nil {
				return "Error: GITHUB_TOKEN is not set. Ask the stakeholder to provide it.", nil
			}
			if !repositoryNamePattern.MatchString(input.RepoName) {
				return "", fmt.Errorf("repository name %q may only contain letters, digits, '.', '-' and '_'", input.RepoName)
			}

			repository, err := config.Creator.CreateRepository(ctx, github.CreateRepositoryRequest{
				Name:        input.RepoName,
				Description: input.Description,
				Private:     true,
				AutoInit:    true,
			})
			if github.IsNameTaken(err) {
				return fmt.Sprintf("Error: a repository named %q already exists on this account. Choose a different name.", input.RepoName), nil
			}
			if err != nil {
				return "", err
			}

			cloneURL := repository.CloneURL
			if config.Token != "" {
				cloneURL, err = github.AuthenticatedCloneURL(repository.CloneURL, config.Token)
				if err != nil {
					return "", err
				}
			}
			dir := filepath.Join(config.Workspace.Root(), input.RepoName)
			if _, err := os.Stat(dir); err == nil {
				return "", fmt.Errorf("%s already exists in the workspace", input.RepoName)
			}
			config.Logger.Info("cloning repository", "url", repository.CloneURL, "dir", dir)
			if _, err := config.Clone(ctx, cloneURL, dir); err != nil {
				return "", err
			}
			config.Workspace.SetProject(dir)

			return fmt.Sprintf("Successfully created GitHub repository '%s' and cloned it locally into %s. Remote URL: %s",
				repository.FullName, dir, repository.CloneURL), nil
		},
	}
}

// GitCommitPushTool commits every change in the current project
// directory and pushes it.
func GitCommitPushTool(workspace *Workspace, identity git.Identity, logger *slog.Logger) toolserver.Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &toolserver.Func{
		ToolName:        GitCommitToolName,
		ToolDescription: "Commits all local changes and pushes them to the remote GitHub repository.",
		Schema: json.RawMessage(`{"type":"object","properties":{` +
			`"message":{"type":"string","description":"The commit message"}},` +
			`"required":["message"]}`),
		Fn: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var input struct {
				Message string `json:"message"`
			}
			if err := decodeArguments(arguments, &input); err != nil {
				return "", err
			}
			repository := git.NewRepository(workspace.Dir())
			committed, err := repository.CommitAndPush(ctx, identity, input.Message)
			if err != nil {
				return "", err
			}
			logger.Info("pushed project", "dir", repository.Dir(), "committed", committed)
			if !committed {
				return "Nothing to commit; pushed existing commits.", nil
			}
			return "Committed and pushed: " + input.Message, nil
		},
	}
}
