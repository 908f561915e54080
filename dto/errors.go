package dto

import (
	"errors"
	"strconv"
)

// ErrInvalidConfiguration matches every InvalidConfigurationError via errors.Is.
var ErrInvalidConfiguration = errors.New("dto: invalid configuration")

// InvalidConfigurationError is returned when no creation strategy applies to the
// configured (dto_class, dto_factory) pair, or when the configuration needed to pick
// one is missing. It is a developer-facing error and is never retried.
type InvalidConfigurationError struct {
	Entity  string
	View    string
	Factory string

	// Reason is empty when the factory reference simply matched no strategy.
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *InvalidConfigurationError) Error() string {
	// Example: dto: could not find a way to create a DTO for entity "Product" with configured factory "svc::make"
	msg := "dto: could not find a way to create a DTO for entity " + strconv.Quote(e.Entity) +
		" with configured factory " + strconv.Quote(e.Factory)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrInvalidConfiguration as a match.
func (e *InvalidConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }

// Unwrap returns the underlying cause, if any.
func (e *InvalidConfigurationError) Unwrap() error { return e.Err }

// DuplicateFactoryError is returned when two object factories share a name.
type DuplicateFactoryError struct{ Name string }

// Error implements the error interface.
func (e DuplicateFactoryError) Error() string {
	return "dto: object factory with name " + strconv.Quote(e.Name) +
		" already exists. You cannot set two object factories with the same name"
}

// DuplicateRegistrationError is returned when a type registry key is registered twice.
type DuplicateRegistrationError struct {
	// Kind is one of "constructor", "static" or "callable".
	Kind string
	Key  string
}

// Error implements the error interface.
func (e DuplicateRegistrationError) Error() string {
	// Example: dto: duplicate constructor registration "app.NewProductDTO"
	return "dto: duplicate " + e.Kind + " registration " + strconv.Quote(e.Key)
}

// ArgumentTypeError is returned by adapted functions when the supplied data does not
// match the parameter type.
type ArgumentTypeError struct {
	Want string
	Got  string
}

// Error implements the error interface.
func (e ArgumentTypeError) Error() string {
	return "dto: argument of type " + e.Got + " is not assignable to " + e.Want
}

// WrongTypeError is returned by Create when the produced DTO is not of the requested type.
type WrongTypeError struct {
	Entity string
	View   string
	Want   string
	Got    string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: dto: entity "Product" view "new" produced app.EditProductDTO, want app.NewProductDTO
	return "dto: entity " + strconv.Quote(e.Entity) + " view " + strconv.Quote(e.View) +
		" produced " + e.Got + ", want " + e.Want
}
