// Package envelope gives typed, self-describing access to raw decoded
// payloads while failing loudly on contract violations.
//
// An envelope type is a Schema: a static table of named fields, each
// bound to a key path into the payload and optionally a wrapper
// applied to the extracted value (per element when the value is a
// list). Schemas extend each other, so record types inherit their
// parents' fields without repeating extraction logic.
//
// Construction deep-copies the payload and resolves every declared
// field eagerly: a required field whose path does not resolve fails
// immediately with a MissingFieldError carrying the path, the absent
// key, and the whole payload. After construction an envelope is
// immutable and every access is referentially stable.
package envelope
