// Package easydto builds form DTOs for admin entities from configuration.
//
// Each entity view ("new", "edit", ...) names a dto_class and, optionally, a
// dto_factory. The factory reference selects how the DTO is created:
//
//   - empty or "__construct": the registered constructor of dto_class
//   - a bare name: a static method registered on dto_class
//   - "Class::method" or a registered callable ref: that callable
//   - "service_id::method": a method on a service from the locator
//   - the name of a registered ObjectFactory: that factory
//
// Packages:
//   - config: entity configuration (in-memory or easy_admin YAML)
//   - di: service locator
//   - dto: type registry and factory resolver
//   - cmd/dtogen: generates type registry code from a JSON spec
//   - examples/admin: runnable composition root
package easydto
