package llm

import (
	"strings"
	"testing"
)

func TestRequestOptionsOnlySetFields(t *testing.T) {
	opts := requestOptions(Request{})
	if len(opts) != 0 {
		t.Errorf("empty request produced overrides: %v", opts)
	}

	temp := 0.2
	maxTokens := 512
	opts = requestOptions(Request{
		Model:       "claude-sonnet-4-5-20250514",
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if opts["model"] != "claude-sonnet-4-5-20250514" {
		t.Errorf("model override = %v", opts["model"])
	}
	if opts["temperature"] != 0.2 {
		t.Errorf("temperature override = %v", opts["temperature"])
	}
	if opts["max_tokens"] != 512 {
		t.Errorf("max_tokens override = %v", opts["max_tokens"])
	}
}

func TestDefaultModelPerProvider(t *testing.T) {
	if m := defaultModel("anthropic"); !strings.HasPrefix(m, "claude") {
		t.Errorf("anthropic default = %q", m)
	}
	if m := defaultModel("openai"); m == "" {
		t.Error("openai default is empty")
	}
}

func TestParseToolCallsFromText(t *testing.T) {
	a := &GollmAdapter{provider: "anthropic"}

	calls := a.parseToolCalls(`I'll read that file. [{"name":"read_file","arguments":{"path":"a.js"}}]`)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Name != "read_file" {
		t.Errorf("name = %q", calls[0].Name)
	}
	if !strings.Contains(string(calls[0].Arguments), "a.js") {
		t.Errorf("arguments = %s", calls[0].Arguments)
	}

	if got := a.parseToolCalls("just a plain answer"); got != nil {
		t.Errorf("plain text produced calls: %v", got)
	}
}

func TestBuildResponseSeparatesTextAndCalls(t *testing.T) {
	a := &GollmAdapter{provider: "anthropic", model: "claude-sonnet-4-5-20250514"}

	resp := a.buildResponse(Request{}, `Checking now. [{"name":"list_files","arguments":{}}]`)
	calls := resp.ToolCalls()
	if len(calls) != 1 || calls[0].Name != "list_files" {
		t.Fatalf("calls = %v", calls)
	}
	if text := resp.Text(); !strings.Contains(text, "Checking now.") {
		t.Errorf("preamble text lost: %q", text)
	}
	if strings.Contains(resp.Text(), "list_files") {
		t.Errorf("tool call JSON left in text: %q", resp.Text())
	}
	if resp.FinishReason.Reason != "tool_calls" {
		t.Errorf("finish reason = %q", resp.FinishReason.Reason)
	}

	plain := a.buildResponse(Request{}, "all done")
	if plain.Text() != "all done" {
		t.Errorf("text = %q", plain.Text())
	}
	if plain.FinishReason.Reason != "stop" {
		t.Errorf("finish reason = %q", plain.FinishReason.Reason)
	}
}
