package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Path validation errors
	ErrInvalidSource        ErrorCode = "INVALID_SOURCE"
	ErrInvalidDestination   ErrorCode = "INVALID_DESTINATION"
	ErrIdenticalDirectories ErrorCode = "IDENTICAL_DIRECTORIES"

	// Engine and template errors
	ErrInvalidEngine       ErrorCode = "INVALID_ENGINE"
	ErrCompile             ErrorCode = "COMPILE"
	ErrInvalidTemplateFile ErrorCode = "INVALID_TEMPLATE_FILE"

	// Configuration and input data errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrDataLoad    ErrorCode = "DATA_LOAD"
)

// DoppelError represents a structured error with code and details
type DoppelError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DoppelError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DoppelError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DoppelError) Is(target error) bool {
	var targetErr *DoppelError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New returns a coded error with no cause.
func New(code ErrorCode, message string) *DoppelError {
	return build(code, message, nil)
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *DoppelError {
	return build(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches a code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *DoppelError {
	if err == nil {
		return nil
	}
	return build(code, message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DoppelError {
	if err == nil {
		return nil
	}
	return build(code, fmt.Sprintf(format, args...), err)
}

func build(code ErrorCode, message string, cause error) *DoppelError {
	return &DoppelError{
		Code:    code,
		Message: message,
		Details: map[string]interface{}{},
		Wrapped: cause,
	}
}

// WithDetail records one key/value pair for renderers and returns e.
func (e *DoppelError) WithDetail(key string, value interface{}) *DoppelError {
	return e.WithDetails(map[string]interface{}{key: value})
}

// WithDetails records every pair of details, overwriting existing keys.
func (e *DoppelError) WithDetails(details map[string]interface{}) *DoppelError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for key, value := range details {
		e.Details[key] = value
	}
	return e
}

// find returns the outermost DoppelError in err's chain.
func find(err error) (*DoppelError, bool) {
	var de *DoppelError
	ok := errors.As(err, &de)
	return de, ok
}

// IsErrorCode reports whether the outermost coded error in err's chain
// carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	de, ok := find(err)
	return ok && de.Code == code
}

// GetErrorCode returns the outermost code in err's chain, or ErrUnknown.
func GetErrorCode(err error) ErrorCode {
	if de, ok := find(err); ok {
		return de.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details of the outermost coded error, or nil.
func GetErrorDetails(err error) map[string]interface{} {
	if de, ok := find(err); ok {
		return de.Details
	}
	return nil
}

// InvalidSource reports a missing source argument (empty path) or a source
// path that does not exist.
func InvalidSource(path string) *DoppelError {
	if path == "" {
		return New(ErrInvalidSource, "Source path must be provided.")
	}
	return Newf(ErrInvalidSource, "Source path %s does not exist.", path).
		WithDetail("path", path)
}

// InvalidDestination reports a missing destination argument.
func InvalidDestination() *DoppelError {
	return New(ErrInvalidDestination, "Destination path must be provided.")
}

// DestinationContainsSource reports a destination that is an ancestor of the
// source, which would delete the source before copying it.
func DestinationContainsSource(dest, src string) *DoppelError {
	return Newf(ErrInvalidDestination,
		"Destination path %s contains source path %s (not copied).", dest, src).
		WithDetails(map[string]interface{}{"dest": dest, "src": src})
}

// IdenticalDirectories reports source and destination resolving to one path.
func IdenticalDirectories(dir1, dir2 string) *DoppelError {
	return Newf(ErrIdenticalDirectories,
		"Directories %s and %s are identical (not copied).", dir1, dir2).
		WithDetails(map[string]interface{}{"src": dir1, "dest": dir2})
}

// InvalidEngine reports an unset (empty name) or unsupported engine. The
// message lists every supported engine name in the given order.
func InvalidEngine(name string, supported []string) *DoppelError {
	var b strings.Builder
	if name == "" {
		b.WriteString("A supported template engine must be selected before running.\n\n")
	} else {
		fmt.Fprintf(&b, "The %s template engine is not supported.\n\n", name)
	}
	b.WriteString("Supported engines include:\n")
	for _, s := range supported {
		fmt.Fprintf(&b, "  * %s\n", s)
	}

	names := make([]string, len(supported))
	copy(names, supported)

	return New(ErrInvalidEngine, strings.TrimRight(b.String(), "\n")).
		WithDetail("engine", name).
		WithDetail("supported", names)
}

// Compile wraps a template engine failure for the template at path.
func Compile(path, engine string, cause error) *DoppelError {
	return Wrapf(cause, ErrCompile, "failed to compile template %s", path).
		WithDetail("path", path).
		WithDetail("engine", engine)
}

// SupportedEngines returns the engine names carried by an INVALID_ENGINE error.
func SupportedEngines(err error) []string {
	details := GetErrorDetails(err)
	if details == nil {
		return nil
	}
	names, _ := details["supported"].([]string)
	return names
}
