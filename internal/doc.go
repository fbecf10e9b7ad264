// Package internal documents the eventdesk server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP router, handlers, middleware and the response envelope
// - domain: admin authentication and event management logic
// - storage: PostgreSQL and in-memory repositories
// - auth, audit, config, metrics, telemetry, validation, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
