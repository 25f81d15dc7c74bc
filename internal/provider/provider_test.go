package provider

import (
	"errors"
	"testing"
)

func TestOpenAIProviderNameDetection(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"", "openai"},
		{"https://api.openai.com/v1", "openai"},
		{"https://api.deepseek.com/v1", "deepseek"},
		{"https://generativelanguage.googleapis.com/v1beta/openai", "gemini"},
		{"https://api.moonshot.cn/v1", "kimi"},
		{"https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen"},
		{"https://api.groq.com/openai/v1", "groq"},
	}
	for _, tt := range tests {
		p := NewOpenAIProvider("key", tt.baseURL, "")
		if p.Name() != tt.want {
			t.Errorf("baseURL %q: name = %q, want %q", tt.baseURL, p.Name(), tt.want)
		}
	}
}

func TestProviderDefaultModels(t *testing.T) {
	if m := NewOpenAIProvider("key", "", "").DefaultModel(); m != "gpt-4o-mini" {
		t.Errorf("openai default model = %q", m)
	}
	if m := NewOpenAIProvider("key", "", "gpt-4o").DefaultModel(); m != "gpt-4o" {
		t.Errorf("openai model override = %q", m)
	}
	if m := NewAnthropicProvider("key", "").DefaultModel(); m != "claude-sonnet-4-20250514" {
		t.Errorf("anthropic default model = %q", m)
	}
}

func TestCollectAssemblesTextAndCalls(t *testing.T) {
	ch := make(chan Event, 8)
	ch <- Event{Type: EventTextDelta, TextDelta: `{"intent":`}
	ch <- Event{Type: EventTextDelta, TextDelta: `"privileged"}`}
	ch <- Event{Type: EventToolCallDone, ToolCall: &ToolCallRequest{ID: "c1", Name: "reset_password"}}
	ch <- Event{Type: EventDone, Usage: &Usage{InputTokens: 10, OutputTokens: 5}}
	close(ch)

	text, calls, err := Collect(ch)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != `{"intent":"privileged"}` {
		t.Fatalf("text = %q", text)
	}
	if len(calls) != 1 || calls[0].Name != "reset_password" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestCollectReturnsStreamError(t *testing.T) {
	ch := make(chan Event, 2)
	ch <- Event{Type: EventTextDelta, TextDelta: "partial"}
	ch <- Event{Type: EventError, Error: errors.New("connection reset")}
	close(ch)

	if _, _, err := Collect(ch); err == nil {
		t.Fatal("expected stream error to propagate")
	}
}
