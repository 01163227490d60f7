package types

import "fmt"

// UnsupportedModelError is returned for a model id whose provider prefix is not
// in the closed provider set.
type UnsupportedModelError struct {
	ModelID string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %s", e.ModelID)
}

// MissingCredentialError is returned when no usable API key could be resolved
// for a provider. It names the environment variable the operator should set.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no API key for provider %s: set %s", e.Provider, e.EnvVar)
}

// ConfigurationError is returned when no orchestrator agent is registered for
// the requested mode.
type ConfigurationError struct {
	Mode string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no orchestrator agent configured for mode %q", e.Mode)
}

// ValidationError is a tool-input schema or precondition failure.
type ValidationError struct {
	Tool    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Tool == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// UpstreamRequestError is a failed REST call against the sibling graph API.
type UpstreamRequestError struct {
	Path    string
	Status  int
	Message string
}

func (e *UpstreamRequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed at %s", e.Path)
}
