// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"errors"
	"testing"
	"time"

	"github.com/SmartHomeBobby/Module-CodingCrew/lib/codec"
)

func TestGenerationRequestWireKeys(t *testing.T) {
	request := GenerationRequest{
		Header: Header{
			TraceID:      "trace-1",
			EventID:      "event-1",
			CreationTime: Timestamp(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)),
			Sender:       Sender{Module: "codingcrew", Host: "codingcrew_0011aabb", Version: "1.0.0"},
			Priority:     1,
		},
		RequestType: 1,
		Request:     "Human: write a test",
	}

	data, err := Encode(codec.JSON, request)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var fields map[string]any
	if err := codec.JSON.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// The header is flattened into the top-level object.
	for _, key := range []string{"TraceId", "EventId", "CreationTime", "Sender", "Priority", "RequestType", "Request"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("encoded request missing key %q: %s", key, data)
		}
	}
	if fields["CreationTime"] != "2026-03-04T05:06:07Z" {
		t.Errorf("CreationTime = %v", fields["CreationTime"])
	}
	sender, _ := fields["Sender"].(map[string]any)
	if sender["Module"] != "codingcrew" || sender["Host"] != "codingcrew_0011aabb" {
		t.Errorf("Sender = %v", fields["Sender"])
	}
}

func TestDecisionRequestWireKeys(t *testing.T) {
	data, err := Encode(codec.JSON, DecisionRequest{
		Header:   Header{TraceID: "t", EventID: "e"},
		Question: "Which database?",
		Context:  "Postgres or SQLite",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var fields map[string]any
	if err := codec.JSON.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if fields["Question"] != "Which database?" || fields["Context"] != "Postgres or SQLite" {
		t.Errorf("decision fields = %v", fields)
	}
	if _, ok := fields["RequestType"]; ok {
		t.Error("decision request must not carry RequestType")
	}
}

func TestDecodeReplyAcceptsBothSpellings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		keys    []string
		want    string
	}{
		{"pascal trace id", `{"TraceId":"abc","Response":"42"}`, TraceIDKeys, "abc"},
		{"camel trace id", `{"traceId":"abc","response":"42"}`, TraceIDKeys, "abc"},
		{"pascal answer", `{"EventId":"xyz","Answer":"yes"}`, AnswerKeys, "yes"},
		{"camel answer", `{"eventId":"xyz","answer":"no"}`, AnswerKeys, "no"},
		{"primary wins", `{"Response":"primary","response":"alternate"}`, ResponseKeys, "primary"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reply, err := DecodeReply(codec.JSON, []byte(test.payload))
			if err != nil {
				t.Fatalf("DecodeReply: %v", err)
			}
			got, ok := reply.String(test.keys...)
			if !ok || got != test.want {
				t.Errorf("String(%v) = %q, %v; want %q", test.keys, got, ok, test.want)
			}
		})
	}
}

func TestReplyIgnoresNonStringValues(t *testing.T) {
	reply, err := DecodeReply(codec.JSON, []byte(`{"TraceId":17,"traceId":"fallback"}`))
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	got, ok := reply.String(TraceIDKeys...)
	if !ok || got != "fallback" {
		t.Errorf("String = %q, %v; want fallback", got, ok)
	}
	if _, ok := reply.String(ResponseKeys...); ok {
		t.Error("absent field reported present")
	}
}

func TestDecodeReplyRejectsMalformedPayloads(t *testing.T) {
	for _, payload := range []string{"not json at all", `"just a string"`, `[1,2,3]`, `null`} {
		_, err := DecodeReply(codec.JSON, []byte(payload))
		var decodeError *DecodeError
		if !errors.As(err, &decodeError) {
			t.Errorf("DecodeReply(%q) error = %v, want *DecodeError", payload, err)
			continue
		}
		if decodeError.Size != len(payload) || decodeError.Codec != "json" {
			t.Errorf("DecodeError = %+v", decodeError)
		}
	}
}

func TestDecodeReplyCBOR(t *testing.T) {
	data, err := Encode(codec.CBOR, GenerationReply{TraceID: "abc", Response: "42"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reply, err := DecodeReply(codec.CBOR, data)
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if got, _ := reply.String(ResponseKeys...); got != "42" {
		t.Errorf("Response = %q, want 42", got)
	}
}

func TestDecodeTypedRequestCamelCase(t *testing.T) {
	var request DecisionRequest
	payload := `{"traceId":"t","eventId":"e","question":"Ship it?","context":"tests pass"}`
	if err := Decode(codec.JSON, []byte(payload), &request); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if request.EventID != "e" || request.Question != "Ship it?" || request.Context != "tests pass" {
		t.Errorf("decoded request = %+v", request)
	}
}
