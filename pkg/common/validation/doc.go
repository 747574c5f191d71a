// Package validation provides common validation utilities for configuration
// parameters across slidegate.
//
// Every helper returns a *errors.ValidationError, which unwraps to
// errors.ErrInvalidConfiguration, so constructors can surface them unchanged.
package validation
