// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	repairedJSONMarker = "Repaired JSON:"
	actionInputMarker  = "Action Input:"
)

// Clean post-processes a raw completion, in order:
//
//  1. truncate at the earliest occurrence of any stop word;
//  2. drop every "Repaired JSON:" marker and trim;
//  3. if the "Action Input:" is a JSON array whose first element is an
//     object, keep only that object (models sometimes emit a list of
//     tool calls where one is expected);
//  4. if the whole completion is such an array, keep only its first
//     object.
//
// Arrays are parsed leniently: comments and trailing commas are
// tolerated. Anything that does not parse is left as is.
func Clean(response string, stop []string) string {
	response = TruncateAtStop(response, stop)
	response = strings.TrimSpace(strings.ReplaceAll(response, repairedJSONMarker, ""))
	response = collapseActionInput(response)

	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "[") && strings.HasSuffix(response, "]") {
		if first, ok := firstObject([]byte(response)); ok {
			response = first
		}
	}
	return response
}

// TruncateAtStop cuts response at the earliest stop word.
func TruncateAtStop(response string, stop []string) string {
	cut := len(response)
	for _, word := range stop {
		if word == "" {
			continue
		}
		if index := strings.Index(response, word); index >= 0 && index < cut {
			cut = index
		}
	}
	return response[:cut]
}

func collapseActionInput(response string) string {
	marker := strings.Index(response, actionInputMarker)
	if marker < 0 {
		return response
	}
	start := marker + len(actionInputMarker)
	for start < len(response) && isSpace(response[start]) {
		start++
	}
	if start >= len(response) || response[start] != '[' {
		return response
	}

	// jsonc rewrites comments and trailing commas to spaces in place, so
	// offsets into the stripped text are offsets into the original.
	stripped := jsonc.ToJSON([]byte(response[start:]))
	decoder := json.NewDecoder(bytes.NewReader(stripped))
	var array json.RawMessage
	if err := decoder.Decode(&array); err != nil {
		return response
	}
	end := start + int(decoder.InputOffset())

	// The array must be followed by a line break or the end of input.
	rest := response[end:]
	if trimmed := strings.TrimLeft(rest, " \t\r"); trimmed != "" && trimmed[0] != '\n' {
		return response
	}

	first, ok := firstObject(array)
	if !ok {
		return response
	}
	return response[:start] + first + rest
}

// firstObject returns the compact encoding of the first element when
// data is a JSON array whose first element is an object. Key order is
// preserved.
func firstObject(data []byte) (string, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &elements); err != nil || len(elements) == 0 {
		return "", false
	}
	if !bytes.HasPrefix(bytes.TrimSpace(elements[0]), []byte("{")) {
		return "", false
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, elements[0]); err != nil {
		return "", false
	}
	return compact.String(), true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
