// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm is the chat-model interface used by the crew's agents.
//
// The primary abstraction is [Provider]: a blocking completion over a
// list of role-tagged [Message] values with optional stop words.
//
// [BridgeProvider] implements Provider on top of the generation family
// of lib/rpc. The local LLM module on the other side of the bus takes a
// single prompt string and knows nothing about stop words, so the
// provider flattens the conversation into "Role: content" lines and
// applies stop words itself. It then repairs the output quirks local
// models are known for (see [Clean]) before handing the text to the
// agent's parser.
package llm
