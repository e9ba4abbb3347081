package schema

import (
	"errors"
	"strings"
)

// Sentinel errors for model failures.
var (
	// ErrValidation indicates a schema violates an object-model invariant.
	ErrValidation = errors.New("chrono: schema validation failed")
	// ErrTypeMapping indicates an opaque type reached a context that needs a concrete type.
	ErrTypeMapping = errors.New("chrono: type mapping failed")
)

// ValidationError is a single invariant violation.
type ValidationError struct {
	Entity  string // Entity type name
	Member  string // Member name (if applicable)
	Rule    string // Short rule identifier, e.g. "identity-type"
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("chrono: validation error")
	if e.Entity != "" {
		b.WriteString(" on ")
		b.WriteString(e.Entity)
	}
	if e.Member != "" {
		b.WriteString(".")
		b.WriteString(e.Member)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(entity, member, rule, message string) *ValidationError {
	return &ValidationError{Entity: entity, Member: member, Rule: rule, Message: message}
}

// ValidationErrors is the complete set of violations found in one
// entity.
type ValidationErrors []*ValidationError

// Error joins all violations, one per line.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap returns the violations for errors.Is and errors.As.
func (es ValidationErrors) Unwrap() []error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errs
}

// Rules returns the rule identifiers in report order.
func (es ValidationErrors) Rules() []string {
	rules := make([]string, len(es))
	for i, e := range es {
		rules[i] = e.Rule
	}
	return rules
}

// TypeMappingError reports an opaque type used where a concrete
// mapping is required.
type TypeMappingError struct {
	XMLType string // Type name as written in the schema
	Context string // Where the concrete mapping was needed
}

// Error implements the error interface.
func (e *TypeMappingError) Error() string {
	return "chrono: cannot map type " + e.XMLType + " for " + e.Context
}

// Is reports whether the target matches ErrTypeMapping.
func (e *TypeMappingError) Is(target error) bool {
	return target == ErrTypeMapping
}

// NewTypeMappingError creates a new TypeMappingError.
func NewTypeMappingError(xmlType, context string) *TypeMappingError {
	return &TypeMappingError{XMLType: xmlType, Context: context}
}

// IsValidationError reports whether the error is or contains a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsTypeMappingError reports whether the error is a TypeMappingError.
func IsTypeMappingError(err error) bool {
	var e *TypeMappingError
	return errors.As(err, &e)
}
