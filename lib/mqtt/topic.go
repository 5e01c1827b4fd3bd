// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"fmt"
	"strings"
)

// ValidateTopic checks a topic name used for publishing: non-empty and
// free of wildcard characters.
func ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("mqtt: empty topic")
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("mqtt: topic %q contains a wildcard", topic)
	}
	return nil
}

// ValidateFilter checks a subscription filter: "+" must occupy a whole
// level, and "#" must occupy the last level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("mqtt: empty topic filter")
	}
	levels := strings.Split(filter, "/")
	for index, level := range levels {
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("mqtt: filter %q: '+' must occupy a whole level", filter)
		}
		if strings.Contains(level, "#") && (level != "#" || index != len(levels)-1) {
			return fmt.Errorf("mqtt: filter %q: '#' must be the last level", filter)
		}
	}
	return nil
}

// MatchTopic reports whether topic matches filter. "+" matches exactly
// one level; "#" matches the parent level and everything below it.
// Wildcards in the first level do not match topics beginning with "$".
func MatchTopic(filter, topic string) bool {
	if strings.HasPrefix(topic, "$") && (strings.HasPrefix(filter, "+") || strings.HasPrefix(filter, "#")) {
		return false
	}
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for index, level := range filterLevels {
		if level == "#" {
			return true
		}
		if index >= len(topicLevels) {
			return false
		}
		if level != "+" && level != topicLevels[index] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
