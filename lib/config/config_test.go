// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// noEnv is a lookup with nothing set.
func noEnv(string) (string, bool) { return "", false }

func envMap(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Broker.Host != "tower" || cfg.Broker.Port != 1883 || cfg.Broker.QoS != 2 {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	if cfg.Timeouts.Generation != 300*time.Second || cfg.Timeouts.Decision != time.Hour {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Topics.Request != "smarthomebobby/llm/request" || cfg.Topics.DecisionResponse != "smarthomebobby/crewai/decision/response" {
		t.Errorf("topics = %+v", cfg.Topics)
	}
	if cfg.Shutdown.CancelPending {
		t.Error("cancel_pending should default to false")
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codingcrew.yaml")
	content := `
broker:
  host: mqtt.local
  port: 8883
timeouts:
  decision: 15m
encoding: cbor
shutdown:
  cancel_pending: true
crew:
  goal: build a weather station dashboard
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if cfg.Broker.Host != "mqtt.local" || cfg.Broker.Port != 8883 {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	if cfg.Timeouts.Decision != 15*time.Minute {
		t.Errorf("decision timeout = %v", cfg.Timeouts.Decision)
	}
	// Untouched keys keep their defaults.
	if cfg.Timeouts.Generation != 300*time.Second || cfg.Broker.ClientIDPrefix != "crewai_agent" {
		t.Errorf("defaults lost: %+v %+v", cfg.Timeouts, cfg.Broker)
	}
	if cfg.Encoding != "cbor" || !cfg.Shutdown.CancelPending || cfg.Crew.Goal != "build a weather station dashboard" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	if err := cfg.loadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("timeouts:\n  generation: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.loadFile(path); err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("loadFile(bad duration) = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"MQTT_BROKER":                  "broker.lan",
		"MQTT_PORT":                    "1884",
		"MQTT_USER":                    "crew",
		"MQTT_PASSWORD":                "secret",
		"MQTT_TOPIC_REQUEST":           "llm/in",
		"MQTT_TOPIC_RESPONSE":          "llm/out",
		"MQTT_TOPIC_DECISION_REQUEST":  "decide/in",
		"MQTT_TOPIC_DECISION_RESPONSE": "decide/out",
		"PROJECT_GOAL":                 "a recipe app",
		"TECHNICAL_DETAILS":            "Use SQLite.",
		"GITHUB_TOKEN":                 "ghp_x",
		"CODINGCREW_ENCODING":          "cbor",
		"OTEL_EXPORTER_OTLP_ENDPOINT":  "localhost:4318",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	want := Default()
	want.Broker.Host, want.Broker.Port = "broker.lan", 1884
	want.Broker.Username, want.Broker.Password = "crew", "secret"
	want.Topics = TopicsConfig{Request: "llm/in", Response: "llm/out", DecisionRequest: "decide/in", DecisionResponse: "decide/out"}
	want.Crew.Goal, want.Crew.Details = "a recipe app", "Use SQLite."
	want.GitHub.Token = "ghp_x"
	want.Encoding = "cbor"
	want.Tracing.Endpoint = "localhost:4318"
	if *cfg != *want {
		t.Errorf("ApplyEnv result\n got %+v\nwant %+v", *cfg, *want)
	}
}

func TestApplyEnvBadPort(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(envMap(map[string]string{"MQTT_PORT": "mqtt"})); err == nil {
		t.Error("non-numeric MQTT_PORT accepted")
	}
	if err := cfg.ApplyEnv(noEnv); err != nil {
		t.Errorf("ApplyEnv(empty) = %v", err)
	}
	if cfg.Broker.Port != 1883 {
		t.Errorf("port changed to %d", cfg.Broker.Port)
	}
}

func TestLoadUsesConfigEnvVarAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	if err := os.WriteFile(path, []byte("broker:\n  host: from-file\ncrew:\n  output_dir: ${CREW_TEST_ROOT}/projects\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnvVar, path)
	t.Setenv("CREW_TEST_ROOT", "/srv")
	t.Setenv("MQTT_TOPIC_REQUEST", "override/request")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.Host != "from-file" {
		t.Errorf("host = %q, want value from file", cfg.Broker.Host)
	}
	if cfg.Topics.Request != "override/request" {
		t.Errorf("request topic = %q, want env override", cfg.Topics.Request)
	}
	if cfg.Crew.OutputDir != "/srv/projects" {
		t.Errorf("output dir = %q", cfg.Crew.OutputDir)
	}
}

func TestExpandVarsDefault(t *testing.T) {
	if got := expandVars("${CREW_SURELY_UNSET_VAR:-/app}/out"); got != "/app/out" {
		t.Errorf("expandVars = %q", got)
	}
}

func TestValidateReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Broker.Host = ""
	cfg.Broker.Port = 70000
	cfg.Broker.QoS = 3
	cfg.Topics.DecisionResponse = cfg.Topics.Response
	cfg.Topics.Request = ""
	cfg.Timeouts.Decision = 0
	cfg.Encoding = "xml"
	cfg.Crew.MaxIterations = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{
		"broker.host is required",
		"broker.port 70000",
		"broker.qos",
		"topics.request is required",
		"must differ",
		"timeouts.decision",
		"encoding",
		"crew.max_iterations",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate error lacks %q:\n%v", want, err)
		}
	}
}
