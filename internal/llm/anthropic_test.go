package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func sseEvent(name, data string) string {
	return "event: " + name + "\ndata: " + data + "\n\n"
}

func TestAnthropicUnavailableWithoutCredential(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "  ", BaseURL: srv.URL})
	if c.Available() {
		t.Fatalf("expected unavailable with blank credential")
	}

	fragments := collectFragments(t, c.Stream(context.Background(), Request{Messages: []Message{UserText("hello")}}))
	if len(fragments) != 1 || fragments[0].Kind != FragmentError {
		t.Fatalf("fragments=%+v, want exactly one error marker", fragments)
	}
	if joinText(fragments) != "" {
		t.Fatalf("expected zero content fragments")
	}
	if hits.Load() != 0 {
		t.Fatalf("no request should be sent without a credential")
	}
}

func TestAnthropicStream(t *testing.T) {
	var gotReq map[string]any
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		var b strings.Builder
		b.WriteString(sseEvent("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[]}}`))
		b.WriteString(sseEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`))
		b.WriteString(sseEvent("ping", `{"type": "ping"}`))
		b.WriteString(sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Certainly"}}`))
		b.WriteString(sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_de`))
		b.WriteString(sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":", sir."}}`))
		b.WriteString(sseEvent("content_block_stop", `{"type":"content_block_stop","index":0}`))
		b.WriteString(sseEvent("message_stop", `{"type":"message_stop"}`))
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 2048})
	fragments := collectFragments(t, c.Stream(context.Background(), Request{
		Messages: []Message{SystemText("Be brief."), UserText("hello")},
		Model:    "claude-sonnet-4-20250514",
		System:   "You are Jarvis.",
	}))

	if got := joinText(fragments); got != "Certainly, sir." {
		t.Fatalf("text=%q, want %q", got, "Certainly, sir.")
	}
	if len(fragments) != 2 {
		t.Fatalf("got %d fragments, want 2: %+v", len(fragments), fragments)
	}

	if gotHeaders.Get("x-api-key") != "sk-test" {
		t.Fatalf("x-api-key=%q", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != "2023-06-01" {
		t.Fatalf("anthropic-version=%q", gotHeaders.Get("anthropic-version"))
	}
	if gotReq["stream"] != true || gotReq["model"] != "claude-sonnet-4-20250514" || gotReq["max_tokens"] != float64(2048) {
		t.Fatalf("unexpected request: %v", gotReq)
	}
	if gotReq["system"] != "You are Jarvis.\n\nBe brief." {
		t.Fatalf("system=%q", gotReq["system"])
	}
	msgs, _ := gotReq["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages=%v, want only the user turn", gotReq["messages"])
	}
}

func TestAnthropicNon200YieldsStatusMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "bad", BaseURL: srv.URL})
	fragments := collectFragments(t, c.Stream(context.Background(), Request{Messages: []Message{UserText("hello")}}))
	if len(fragments) != 1 || fragments[0].Kind != FragmentError {
		t.Fatalf("fragments=%+v, want exactly one error marker", fragments)
	}
	if !strings.Contains(fragments[0].Text, "401") {
		t.Fatalf("marker %q should embed the status code", fragments[0].Text)
	}
}

func TestAnthropicTransportFailureYieldsErrorMarker(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: url})
	fragments := collectFragments(t, c.Stream(context.Background(), Request{Messages: []Message{UserText("hello")}}))
	if len(fragments) != 1 || fragments[0].Kind != FragmentError {
		t.Fatalf("fragments=%+v, want exactly one error marker", fragments)
	}
}

func TestAnthropicStreamDroppedConnectionYieldsOneErrorMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`))
		dropConnection(t, w)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	fragments := collectFragments(t, c.Stream(context.Background(), Request{Messages: []Message{UserText("hello")}}))
	assertTerminalError(t, fragments, "Hi")
}

func TestAnthropicErrorEventEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		var b strings.Builder
		b.WriteString(sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Partial"}}`))
		b.WriteString(sseEvent("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
		b.WriteString(sseEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" ignored"}}`))
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	fragments := collectFragments(t, c.Stream(context.Background(), Request{Messages: []Message{UserText("hello")}}))
	assertTerminalError(t, fragments, "Partial")
	if !strings.Contains(fragments[len(fragments)-1].Text, "overloaded_error") {
		t.Fatalf("marker %q should carry the event payload", fragments[len(fragments)-1].Text)
	}
}

func TestBuildAnthropicRequestOmitsEmptySystem(t *testing.T) {
	body, err := json.Marshal(buildAnthropicRequest(Request{
		Messages: []Message{UserText("hi"), AssistantText("hello"), UserText("bye")},
		Model:    "claude-sonnet-4-20250514",
	}, 1024))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), `"system"`) {
		t.Fatalf("system should be omitted: %s", body)
	}
	if !strings.Contains(string(body), `"stream":true`) {
		t.Fatalf("stream flag missing: %s", body)
	}
}
