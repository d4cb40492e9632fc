// Package provider holds the table of repository providers a launch form can
// target.
//
// A provider is pure data: its id (used verbatim in build specs and launch
// URLs), its display labels, whether repository identifiers must be
// percent-encoded, whether a version reference is meaningful and what it
// defaults to, and an optional detection pattern that extracts the
// repository from pasted input.
//
// Registries are immutable once built. A Registry is validated at load time:
// ids must be unique and non-empty, and every detection pattern must compile
// as an RE2 expression that declares a capture group named "repo". These are
// configuration defects and never reach the launch derivations.
//
// The process-wide current registry lives in a Store, which is populated once
// at start-up and replaced only by a fresh load (see Watch and S3Source).
package provider
