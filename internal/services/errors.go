package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredential = errors.New("Invalid API key format. Please use a GitHub PAT (github_pat_...), DeepInfra API key (sk-...) or OpenRouter key (sk-or-...)")
	ErrUnexpectedFormat  = errors.New("Unexpected response format from AI API")
)

const (
	DuplicateQueryWarning = "You just asked this question! Check the response above, or try asking something different."
	NotConfiguredWarning  = "This AI assistant is not yet configured. Please contact the administrator."
	SaveFailedWarning     = "Failed to save settings. Configuration will persist in this session only."
)

// ProviderError carries the upstream message, prefixed with the provider name.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API Error: %s", e.Provider, e.Message)
}

// ValidationError maps field names to messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// ConfigurationError means no credential is set, so nothing can be sent upstream.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

// DuplicateQueryError rejects a question already asked in the recent transcript.
type DuplicateQueryError struct{ Message string }

func (e *DuplicateQueryError) Error() string { return e.Message }

// BusyError rejects a question while the previous reply is still pending.
type BusyError struct{ Message string }

func (e *BusyError) Error() string { return e.Message }

// NotFoundError reports an unknown session.
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// UnauthorizedError reports a failed admin login.
type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }
