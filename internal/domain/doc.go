// Package domain defines the core types for the vcfbot contact converter.
//
// Types in this package are pure value objects with no behavior, no network
// dependencies, and no chat transport concerns. They are the shared language
// between the conversion packages, the session state machine, and the
// gateway adapters.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants, enums and sentinel errors belong here
package domain
