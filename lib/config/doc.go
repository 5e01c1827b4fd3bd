// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the coding crew's configuration.
//
// Values are layered in a fixed order and read once at startup:
//
//  1. [Default], which matches the deployment the crew was built for
//     (broker "tower", the smarthomebobby topic tree, 300s generation
//     and one hour decision timeouts);
//  2. an optional YAML file named by the --config flag or the
//     CODINGCREW_CONFIG environment variable;
//  3. environment variable overrides (MQTT_BROKER, MQTT_TOPIC_REQUEST,
//     PROJECT_GOAL, GITHUB_TOKEN and friends; see [Config.ApplyEnv]).
//
// ${VAR} and ${VAR:-default} patterns in path fields are expanded
// after loading. [Config.Validate] reports every problem at once.
package config
