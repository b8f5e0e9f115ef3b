package ai

import (
	"errors"
	"fmt"
)

// Kind classifies why a provider call failed.
type Kind string

const (
	KindNotConfigured       Kind = "not_configured"
	KindFetchFailed         Kind = "fetch_failed"
	KindUnsupportedModality Kind = "unsupported_modality"
	KindRateLimited         Kind = "rate_limited"
	KindBlocked             Kind = "blocked"
	KindExtractionFailed    Kind = "extraction_failed"
)

var remediations = map[Kind]string{
	KindNotConfigured:       "Contact an admin to configure an AI provider and API key.",
	KindFetchFailed:         "Check the URL is reachable, or paste the recipe text instead.",
	KindUnsupportedModality: "Try a different import method.",
	KindRateLimited:         "Wait a minute and try again.",
	KindBlocked:             "The site refused automated access. Paste the recipe text instead.",
	KindExtractionFailed:    "Try again, or use a clearer image or text.",
}

// Remediation suggests what the user can do about a failure of this kind.
func (k Kind) Remediation() string {
	if r, ok := remediations[k]; ok {
		return r
	}
	return remediations[KindExtractionFailed]
}

// Error is a typed provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error of kind with a formatted message.
func NewError(kind Kind, provider, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a provider failure, or KindExtractionFailed for
// any other error.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindExtractionFailed
}
