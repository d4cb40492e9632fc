// Package events records structured, discrete events about launches.
//
// Every event travels in a capsule that names the schema and version it
// conforms to:
//
//	{"id": "…", "timestamp": "…", "schema": "binderlink/launch", "version": 1,
//	 "event": {"provider": "gh", "spec": "gh/org%2Frepo/HEAD", "status": "requested"}}
//
// Events are validated against their registered JSON schema before they are
// handed to any sink. A Log without sinks discards everything, so emitting is
// always safe.
package events
