package types

import "strings"

// Mode selects the orchestrator agent for a chat turn.
type Mode string

const (
	ModeEasy Mode = "easy"
	ModeHard Mode = "hard"
)

// NormalizeMode defaults everything that is not exactly "hard" to "easy".
func NormalizeMode(s string) Mode {
	if s == string(ModeHard) {
		return ModeHard
	}
	return ModeEasy
}

// ChatRequest is the body of POST /rah/v1/chat.
type ChatRequest struct {
	Messages    []Message       `json:"messages"`
	OpenTabs    []OpenTab       `json:"openTabs"`
	ActiveTabID string          `json:"activeTabId"`
	CurrentView string          `json:"currentView,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	TraceID     string          `json:"traceId,omitempty"`
	Mode        string          `json:"mode,omitempty"`
	APIKeys     APIKeyOverrides `json:"apiKeys,omitempty"`
}

// Message is a single conversation entry. Only user/assistant/system roles are
// forwarded to the model; anything else is dropped during parsing.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether the role may be forwarded to a provider.
func ValidRole(role string) bool {
	switch role {
	case "user", "assistant", "system":
		return true
	}
	return false
}

// FilterMessages keeps only forwardable roles, preserving order.
func FilterMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if ValidRole(m.Role) {
			out = append(out, m)
		}
	}
	return out
}

// OpenTab is a context document open in the client when the chat turn started.
type OpenTab struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// APIKeyOverrides carries optional per-request provider keys. Never persisted;
// whitespace-only values count as absent.
type APIKeyOverrides struct {
	OpenAI    string `json:"openai,omitempty"`
	Anthropic string `json:"anthropic,omitempty"`
}

// AnthropicKey returns the override or "" when absent.
func (k APIKeyOverrides) AnthropicKey() string {
	return strings.TrimSpace(k.Anthropic)
}

// OpenAIKey returns the override or "" when absent.
func (k APIKeyOverrides) OpenAIKey() string {
	return strings.TrimSpace(k.OpenAI)
}
