// Package validation provides common validation utilities for configuration
// parameters and call arguments across the threadpool module.
//
// Every helper returns a *errors.ValidationError that wraps
// errors.ErrInvalidConfiguration, so callers can match failures with errors.Is.
package validation
