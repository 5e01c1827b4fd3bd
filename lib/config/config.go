// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
)

// ConfigEnvVar names the config file when --config is not given.
const ConfigEnvVar = "CODINGCREW_CONFIG"

// Config is the complete configuration of the codingcrew binary.
type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	Topics   TopicsConfig   `yaml:"topics"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`

	// Encoding is the envelope codec: "json" or "cbor". Both ends of
	// every topic must agree.
	Encoding string `yaml:"encoding"`

	Shutdown ShutdownConfig `yaml:"shutdown"`
	Crew     CrewConfig     `yaml:"crew"`
	Shell    ShellConfig    `yaml:"shell"`
	GitHub   GitHubConfig   `yaml:"github"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// BrokerConfig locates and authenticates against the MQTT broker.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ClientIDPrefix is extended with eight random hex digits per
	// process.
	ClientIDPrefix string `yaml:"client_id_prefix"`

	// QoS is used for subscriptions and publishes. Default: 2.
	QoS byte `yaml:"qos"`

	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	AutoReconnect  bool          `yaml:"auto_reconnect"`
}

// TopicsConfig names the four topics of the two call families.
type TopicsConfig struct {
	Request          string `yaml:"request"`
	Response         string `yaml:"response"`
	DecisionRequest  string `yaml:"decision_request"`
	DecisionResponse string `yaml:"decision_response"`
}

// TimeoutsConfig holds the per-family default timeouts.
type TimeoutsConfig struct {
	Generation time.Duration `yaml:"generation"`
	Decision   time.Duration `yaml:"decision"`
}

// ShutdownConfig controls what happens to in-flight calls on stop.
type ShutdownConfig struct {
	// CancelPending fails pending calls immediately when the bridge
	// stops instead of leaving them to time out.
	CancelPending bool `yaml:"cancel_pending"`
}

// CrewConfig describes the project the crew builds.
type CrewConfig struct {
	Goal    string `yaml:"goal"`
	Details string `yaml:"details"`

	// OutputDir is the workspace root generated projects land in.
	OutputDir string `yaml:"output_dir"`

	// MaxIterations bounds each agent's tool-use turns per task.
	MaxIterations int `yaml:"max_iterations"`
}

// ShellConfig configures the command execution tool.
type ShellConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Shell   string        `yaml:"shell"`
}

// GitHubConfig configures repository creation. An empty Token disables
// the GitHub tool.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// TracingConfig configures OTLP trace export. An empty Endpoint
// disables export.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:           "tower",
			Port:           1883,
			ClientIDPrefix: "crewai_agent",
			QoS:            2,
			KeepAlive:      60 * time.Second,
			ConnectTimeout: 30 * time.Second,
			AutoReconnect:  true,
		},
		Topics: TopicsConfig{
			Request:          "smarthomebobby/llm/request",
			Response:         "smarthomebobby/llm/response",
			DecisionRequest:  "smarthomebobby/crewai/decision/request",
			DecisionResponse: "smarthomebobby/crewai/decision/response",
		},
		Timeouts: TimeoutsConfig{
			Generation: 300 * time.Second,
			Decision:   time.Hour,
		},
		Encoding: "json",
		Crew: CrewConfig{
			Goal:          "program an app for tracking chores for couples",
			Details:       "Follow general best practices.",
			OutputDir:     "/app/generated_projects",
			MaxIterations: 15,
		},
		Shell: ShellConfig{
			Timeout: 300 * time.Second,
			Shell:   "/bin/sh",
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		Tracing: TracingConfig{
			ServiceName: "codingcrew",
		},
	}
}

// Load builds the configuration from defaults, the file at path (or
// $CODINGCREW_CONFIG when path is empty; no file at all is fine), and
// the process environment, then validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the YAML file at path into c. Keys absent from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is
// os.LookupEnv in production. Variables that are set but empty
// override too, except where noted.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	overrides := []struct {
		name   string
		target *string
	}{
		{"MQTT_BROKER", &c.Broker.Host},
		{"MQTT_USER", &c.Broker.Username},
		{"MQTT_PASSWORD", &c.Broker.Password},
		{"MQTT_TOPIC_REQUEST", &c.Topics.Request},
		{"MQTT_TOPIC_RESPONSE", &c.Topics.Response},
		{"MQTT_TOPIC_DECISION_REQUEST", &c.Topics.DecisionRequest},
		{"MQTT_TOPIC_DECISION_RESPONSE", &c.Topics.DecisionResponse},
		{"PROJECT_GOAL", &c.Crew.Goal},
		{"TECHNICAL_DETAILS", &c.Crew.Details},
		{"CODINGCREW_OUTPUT_DIR", &c.Crew.OutputDir},
		{"CODINGCREW_ENCODING", &c.Encoding},
		{"GITHUB_TOKEN", &c.GitHub.Token},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.Endpoint},
		{"OTEL_SERVICE_NAME", &c.Tracing.ServiceName},
	}
	for _, variable := range overrides {
		if value, ok := lookup(variable.name); ok {
			*variable.target = value
		}
	}

	if value, ok := lookup("MQTT_PORT"); ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: MQTT_PORT: %w", err)
		}
		c.Broker.Port = port
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Crew.OutputDir = expandVars(c.Crew.OutputDir)
}

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors and reports all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Broker.Host == "" {
		errs = append(errs, errors.New("broker.host is required"))
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, fmt.Errorf("broker.port %d is out of range", c.Broker.Port))
	}
	if c.Broker.QoS > 2 {
		errs = append(errs, fmt.Errorf("broker.qos must be 0, 1 or 2 (got %d)", c.Broker.QoS))
	}

	topics := map[string]string{
		"topics.request":           c.Topics.Request,
		"topics.response":          c.Topics.Response,
		"topics.decision_request":  c.Topics.DecisionRequest,
		"topics.decision_response": c.Topics.DecisionResponse,
	}
	for _, key := range []string{"topics.request", "topics.response", "topics.decision_request", "topics.decision_response"} {
		if topics[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.Topics.Response != "" && c.Topics.Response == c.Topics.DecisionResponse {
		errs = append(errs, fmt.Errorf("topics.response and topics.decision_response must differ (both %q)", c.Topics.Response))
	}

	if c.Timeouts.Generation <= 0 {
		errs = append(errs, errors.New("timeouts.generation must be positive"))
	}
	if c.Timeouts.Decision <= 0 {
		errs = append(errs, errors.New("timeouts.decision must be positive"))
	}
	if _, err := codec.ByName(c.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("encoding: %w", err))
	}

	if c.Crew.Goal == "" {
		errs = append(errs, errors.New("crew.goal is required"))
	}
	if c.Crew.OutputDir == "" {
		errs = append(errs, errors.New("crew.output_dir is required"))
	}
	if c.Crew.MaxIterations < 1 {
		errs = append(errs, errors.New("crew.max_iterations must be at least 1"))
	}
	if c.Shell.Timeout <= 0 {
		errs = append(errs, errors.New("shell.timeout must be positive"))
	}

	return errors.Join(errs...)
}
