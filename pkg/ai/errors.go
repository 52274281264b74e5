package ai

import (
	"errors"
	"fmt"
)

// ErrPrecondition indicates the draft cannot be evaluated, e.g. an empty body.
var ErrPrecondition = errors.New("poem body is required")

// ErrProviderCallFailed is the single failure condition surfaced by provider clients.
var ErrProviderCallFailed = errors.New("provider call failed")

// ProviderCallError tags a provider failure with the originating variant.
type ProviderCallError struct {
	Provider string
	Err      error
}

func (e *ProviderCallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrProviderCallFailed, e.Provider)
	}
	return fmt.Sprintf("%s: %s: %v", ErrProviderCallFailed, e.Provider, e.Err)
}

func (e *ProviderCallError) Unwrap() []error {
	return []error{ErrProviderCallFailed, e.Err}
}

func providerFailure(provider string, err error) error {
	return &ProviderCallError{Provider: provider, Err: err}
}
