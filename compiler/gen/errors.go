package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for generation failures.
var (
	// ErrCodeGeneration indicates a generator failed for an entity.
	ErrCodeGeneration = errors.New("chrono: code generation failed")
	// ErrFileSystem indicates an artifact could not be read or written.
	ErrFileSystem = errors.New("chrono: file system error")
	// ErrConfiguration indicates an invalid generator configuration.
	ErrConfiguration = errors.New("chrono: invalid configuration")
)

// CodeGenerationError reports a generator failure for one artifact of
// one entity.
type CodeGenerationError struct {
	Kind    ArtifactKind
	Entity  string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CodeGenerationError) Error() string {
	var b strings.Builder
	b.WriteString("chrono: generating ")
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		b.WriteString(" for ")
		b.WriteString(e.Entity)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *CodeGenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrCodeGeneration.
func (e *CodeGenerationError) Is(target error) bool {
	return target == ErrCodeGeneration
}

// NewCodeGenerationError creates a new CodeGenerationError.
func NewCodeGenerationError(kind ArtifactKind, entity, message string, cause error) *CodeGenerationError {
	return &CodeGenerationError{Kind: kind, Entity: entity, Message: message, Cause: cause}
}

// FileSystemError reports a failed file operation.
type FileSystemError struct {
	Op    string
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	var b strings.Builder
	b.WriteString("chrono: ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *FileSystemError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrFileSystem.
func (e *FileSystemError) Is(target error) bool {
	return target == ErrFileSystem
}

// NewFileSystemError creates a new FileSystemError.
func NewFileSystemError(op, path string, cause error) *FileSystemError {
	return &FileSystemError{Op: op, Path: path, Cause: cause}
}

// ConfigurationError reports an invalid option value.
type ConfigurationError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("chrono: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("chrono: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(option string, value any, message string) *ConfigurationError {
	return &ConfigurationError{Option: option, Value: value, Message: message}
}

// IsCodeGenerationError reports whether the error is or wraps a CodeGenerationError.
func IsCodeGenerationError(err error) bool {
	var e *CodeGenerationError
	return errors.As(err, &e)
}

// IsFileSystemError reports whether the error is or wraps a FileSystemError.
func IsFileSystemError(err error) bool {
	var e *FileSystemError
	return errors.As(err, &e)
}

// IsConfigurationError reports whether the error is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
