package types

import (
	"reflect"
	"testing"
)

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"hard", ModeHard},
		{"easy", ModeEasy},
		{"", ModeEasy},
		{"HARD", ModeEasy},
		{"Hard", ModeEasy},
		{"hard ", ModeEasy},
		{"expert", ModeEasy},
	}

	for _, tt := range tests {
		if got := NormalizeMode(tt.in); got != tt.want {
			t.Errorf("NormalizeMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterMessages(t *testing.T) {
	in := []Message{
		{Role: "user", Content: "hi"},
		{Role: "tool", Content: "dropped"},
		{Role: "assistant", Content: "hello"},
		{Role: "function", Content: "dropped"},
		{Role: "system", Content: "kept"},
		{Role: "", Content: "dropped"},
	}

	got := FilterMessages(in)
	want := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "kept"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterMessages() = %+v, want %+v", got, want)
	}
}

func TestAPIKeyOverrides_WhitespaceIsAbsent(t *testing.T) {
	keys := APIKeyOverrides{Anthropic: "   ", OpenAI: " sk-test "}
	if keys.AnthropicKey() != "" {
		t.Errorf("AnthropicKey() = %q, want empty", keys.AnthropicKey())
	}
	if keys.OpenAIKey() != "sk-test" {
		t.Errorf("OpenAIKey() = %q, want %q", keys.OpenAIKey(), "sk-test")
	}
}
