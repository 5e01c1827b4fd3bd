// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/git"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/llm"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/shell"
	"github.com/SmartHomeBobby/Module-CodingCrew/lib/toolserver"
)

// Request types and priority the coding crew uses on the generation
// family.
const (
	PlannerRequestType = 0
	CoderRequestType   = 1
	LLMPriority        = 1
)

// CodingCrewParams holds the inputs of NewCodingCrew.
type CodingCrewParams struct {
	Goal    string
	Details string

	// Planner serves the product, architecture, QA and privacy roles;
	// Coder serves the developer.
	Planner llm.Provider
	Coder   llm.Provider

	Runner    *shell.Runner
	Decider   Decider
	Workspace *Workspace

	// GitHub may be nil when no token is configured.
	GitHub      RepositoryCreator
	GitHubToken string

	// Identity defaults to git.DefaultIdentity.
	Identity git.Identity

	// MaxIterations applies to every agent; zero keeps the default.
	MaxIterations int

	Tracer trace.Tracer
	Logger *slog.Logger
}

// NewCodingCrew builds the software team: a Product Owner and an
// Architect who can consult the stakeholder, a developer and a QA
// engineer with a shell, and a Data Privacy Officer who alone may
// create the repository and push.
func NewCodingCrew(params CodingCrewParams) (*Crew, error) {
	var errs []error
	if params.Goal == "" {
		errs = append(errs, errors.New("goal is required"))
	}
	if params.Planner == nil || params.Coder == nil {
		errs = append(errs, errors.New("planner and coder providers are required"))
	}
	if params.Runner == nil {
		errs = append(errs, errors.New("shell runner is required"))
	}
	if params.Decider == nil {
		errs = append(errs, errors.New("decider is required"))
	}
	if params.Workspace == nil {
		errs = append(errs, errors.New("workspace is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("crew: %w", err)
	}
	if params.Identity == (git.Identity{}) {
		params.Identity = git.DefaultIdentity
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	command := CommandExecutionTool(params.Runner, params.Workspace)
	stakeholder := AskStakeholderTool(params.Decider, logger)
	repository := CreateGithubRepoTool(GitHubRepoConfig{
		Creator:   params.GitHub,
		Token:     params.GitHubToken,
		Workspace: params.Workspace,
		Logger:    logger,
	})
	commit := GitCommitPushTool(params.Workspace, params.Identity, logger)

	productOwner := &Agent{
		Role: "Product Owner",
		Goal: "Define the product features and answer any possible questions about feature details of the app being built.",
		Backstory: "You are the Product Owner. You have the canonical vision for the application. When developers or architects " +
			"are unsure about a feature requirement, user flow, or product detail, they ask you and you decide what to do. " +
			"You never write code, you only clarify product requirements. When even you cannot decide, you ask the stakeholder.",
		LLM:   params.Planner,
		Tools: []toolserver.Tool{stakeholder},
	}
	architect := &Agent{
		Role: "Senior Software Architect",
		Goal: "Design the architecture and project structure for the app based on requirements.",
		Backstory: "You are an expert system architect specializing in Flutter and C# .NET backends. " +
			"You decide the directory structures, frameworks, and patterns to build highly scalable systems.",
		AllowDelegation: true,
		LLM:             params.Planner,
		Tools:           []toolserver.Tool{stakeholder},
	}
	developer := &Agent{
		Role: "Senior Full-Stack Developer",
		Goal: "Write robust code in Flutter and C# .NET to implement the architecture.",
		Backstory: "You are a seasoned developer. You write tests, you verify your code dynamically by building " +
			"it locally, and only when the local builds pass do you commit code.",
		LLM:   params.Coder,
		Tools: []toolserver.Tool{command},
	}
	qualityAssurance := &Agent{
		Role: "QA Engineer",
		Goal: "Ensure all requirements are met and code compiles flawlessly.",
		Backstory: "You are obsessed with quality. You build the project using standard dotnet and flutter tools, " +
			"and push it back to the developer if it fails. You verify code locally.",
		AllowDelegation: true,
		LLM:             params.Planner,
		Tools:           []toolserver.Tool{command},
	}
	privacyOfficer := &Agent{
		Role: "Data Privacy Officer",
		Goal: "Enforce the 'need-to-know' principle and audit code for secrets before deployment.",
		Backstory: "You are a strict Data Privacy Officer. You review architecture to ensure only strictly necessary " +
			"data is collected. Before any code is committed, you aggressively scan the codebase to ensure " +
			"no tokens, API keys, or excessive telemetry are hardcoded or tracked. You are the ONLY agent allowed to push code.",
		AllowDelegation: true,
		LLM:             params.Planner,
		Tools:           []toolserver.Tool{command, repository, commit},
	}
	agents := []*Agent{productOwner, architect, developer, qualityAssurance, privacyOfficer}
	if params.MaxIterations > 0 {
		for _, agent := range agents {
			agent.MaxIterations = params.MaxIterations
		}
	}

	details := params.Details
	if details == "" {
		details = "Follow general best practices."
	}
	tasks := []*Task{
		{
			Name: "planning",
			Description: fmt.Sprintf("Analyze the project goal: '%s'. Consider all these technical details: '%s'. "+
				"Decide on the tech stack (e.g. Flutter frontend, C# backend), database storage strategy, and API contracts. "+
				"Collaborate tightly with the Privacy Officer to establish a 'Need-to-Know' data handling policy from the start. "+
				"Ask the Product Owner for clarification on any missing product requirements regarding user onboarding or features.",
				params.Goal, details),
			ExpectedOutput: "A detailed architecture markdown document along with a clear setup script blueprint that respects privacy.",
			Agent:          architect,
		},
		{
			Name: "coding",
			Description: "Implement the architecture. First, initialize the git repository and project skeletons via local commands. " +
				"Then implement the core features as defined by the architect. Use your execution tool to BUILD and TEST " +
				"the code constantly.",
			ExpectedOutput: "A fully built and compiling codebase with initial unit tests passing.",
			Agent:          developer,
		},
		{
			Name: "qa",
			Description: "Run local compilation commands on the source code generated by the developer. E.g. `dotnet build`, " +
				"`flutter test` (or test equivalents). If errors occur, document them or send back. Do NOT push to GitHub.",
			ExpectedOutput: "Confirmation of valid build and functional baseline.",
			Agent:          qualityAssurance,
		},
		{
			Name: "privacy-audit",
			Description: "Aggressively audit the generated architecture and codebase using local terminal commands (like 'grep' or 'find') " +
				"to ensure no sensitive tokens, API keys, or unnecessary user data fields are mapped. Enforce the " +
				"'need-to-know' principle. Check every single code change. ONLY IF the codebase is clean and secure, use your Git tools to " +
				"create the remote repository and commit/push the final codebase to GitHub. If it violates privacy, fix it first.",
			ExpectedOutput: "Confirmation of a clean privacy audit and a successful GitHub push.",
			Agent:          privacyOfficer,
		},
	}

	crew := &Crew{
		Agents: agents,
		Tasks:  tasks,
		Tracer: params.Tracer,
		Logger: logger,
	}
	if err := crew.Validate(); err != nil {
		return nil, err
	}
	return crew, nil
}
