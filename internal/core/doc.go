// Package core provides the employee directory data layer.
//
// This package owns every rule about employee records and is independent of
// any transport. It is used by the HTTP server, the CLI and tests without
// modification.
//
// # Architecture
//
//   - Store: the canonical in-memory map of id to [Employee]. It is created
//     once at startup with [NewStore] and passed to every consumer.
//   - IDGenerator: [RandomIDGenerator] mints UUIDs and falls back to
//     counter-based xid identifiers when the random source fails.
//   - Importer: parses JSON-array or CSV payloads into [ImportRecord] values
//     and upserts them. Parsing finishes before anything is applied.
//   - ImportLimiter: bounds how many imports are parsed at once.
//   - Export: serializes the snapshot returned by [Store.List].
//   - Apply: the pure filter/sort engine behind directory views.
//   - Summarize: headcount figures for dashboards.
//
// # Import
//
// A CSV header must name every column in [RequiredColumns]:
//
//	name,email,department,role,status,startdate
//	Dana,dana@x.com,Engineering,Engineer,Inactive,2024-01-01
//
// A JSON payload must be an array of objects. Objects with an "id" are
// stored under that id, others are created with a fresh identity.
//
// # Error Handling
//
// Failures are typed sentinels ([ErrNotFound], [ErrInvalidFormat],
// [ErrInvalidInput]) checked with errors.Is. [MapError] turns them into a
// user-facing message with a support code.
package core
