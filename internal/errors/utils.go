package errors

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/multierr"
)

// Wrap wraps an error with additional context, creating a CSVGuardError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *CSVGuardError {
	if err == nil {
		return nil
	}

	// Keep location details of a direct CSVGuardError. Combined errors stay
	// whole in Cause so none of them is lost.
	if te, ok := err.(*CSVGuardError); ok {
		return &CSVGuardError{
			Type:    errType,
			Code:    code,
			Message: message,
			Cause:   te,
			Context: te.Context,
			Path:    te.Path,
			Line:    te.Line,
		}
	}

	return &CSVGuardError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an error as an I/O error, picking the code from the
// underlying filesystem error when it is recognisable.
func WrapIO(err error, message string) *CSVGuardError {
	if err == nil {
		return nil
	}

	code := ErrCodeReadFailed
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = ErrCodeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		code = ErrCodePermissionDenied
	}

	ioErr := Wrap(err, ErrorTypeIO, code, message)

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && ioErr.Path == "" {
		ioErr.Path = pathErr.Path
	}

	return ioErr
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *CSVGuardError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapCancelled wraps a context error. Other errors are returned unchanged.
func WrapCancelled(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrorTypeCancelled, ErrCodeCancelled, "run cancelled")
	}

	return err
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errs := multierr.Errors(err)
	if len(errs) <= 1 {
		return err.Error()
	}

	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "\n"
		}
		msg += "  • " + e.Error()
	}

	return msg
}

// GetErrorContext extracts context information from a CSVGuardError
func GetErrorContext(err error) map[string]interface{} {
	var te *CSVGuardError
	if errors.As(err, &te) {
		context := make(map[string]interface{})
		for k, v := range te.Context {
			context[k] = v
		}
		if te.Path != "" {
			context["path"] = te.Path
			if te.Line > 0 {
				context["line"] = te.Line
			}
		}
		context["type"] = string(te.Type)
		context["code"] = te.Code
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// Combine merges errors with multierr, dropping nils.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Errors splits a combined error into its parts.
func Errors(err error) []error {
	return multierr.Errors(err)
}
