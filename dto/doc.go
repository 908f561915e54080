// Package dto creates entity DTOs according to per-view configuration.
//
// A Factory reads dto_class and dto_factory for an entity view from a
// config.Provider and tries, in order:
//
//  1. a named ObjectFactory registered under dto_factory
//  2. the constructor of dto_class (dto_factory empty or "__construct")
//  3. a static method of dto_class (dto_factory without "::")
//  4. a registered callable (or "Class::method" static method)
//  5. "service_id::method" on a service found in the di.Locator
//
// Anything else is an InvalidConfigurationError. Go cannot look types up by
// name, so constructors, static methods and callables live in a Types registry
// filled at startup, usually by code generated with cmd/dtogen.
//
// Nothing is cached: each CreateEntityDTO call resolves and constructs anew.
package dto
