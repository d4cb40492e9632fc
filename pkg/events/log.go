package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/binderlink/binderlink/internal/errors"
)

// Status is the outcome a launch event reports.
type Status string

const (
	// StatusRequested marks a launch URL that was received and parsed.
	StatusRequested Status = "requested"
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
)

// Capsule wraps one event with its schema metadata.
type Capsule struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Schema    string          `json:"schema"`
	Version   int             `json:"version"`
	Event     json.RawMessage `json:"event"`
}

// Launch is the payload of a LaunchSchema event.
type Launch struct {
	Provider string `json:"provider"`
	Spec     string `json:"spec"`
	Status   Status `json:"status"`
}

// Sink receives validated capsules.
type Sink interface {
	Write(ctx context.Context, c Capsule) error
	Close() error
}

// Log validates events and fans them out to its sinks.
type Log struct {
	sinks   []Sink
	schemas map[schemaKey]*gojsonschema.Schema
	now     func() time.Time
}

// NewLog returns a Log writing to sinks. With no sinks every event is
// discarded.
func NewLog(sinks ...Sink) *Log {
	return &Log{
		sinks:   sinks,
		schemas: builtinSchemas(),
		now:     time.Now,
	}
}

// Enabled reports whether the log has any sink.
func (l *Log) Enabled() bool {
	return l != nil && len(l.sinks) > 0
}

// Emit validates event against schema/version and writes it to every sink.
// Every sink is attempted; failures are reported together as E141.
func (l *Log) Emit(ctx context.Context, schema string, version int, event any) error {
	if !l.Enabled() {
		return nil
	}

	key := schemaKey{schema, version}
	s, ok := l.schemas[key]
	if !ok {
		return errors.New("E142").WithDetail(key.String())
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return errors.New("E140").WithDetail(key.String()).Wrap(err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.New("E140").WithDetail(key.String()).Wrap(err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.New("E140").WithDetailf("%s: %s", key, strings.Join(msgs, "; "))
	}

	c := Capsule{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Schema:    schema,
		Version:   version,
		Event:     raw,
	}

	var errs []error
	for _, sink := range l.sinks {
		if err := sink.Write(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := stderrors.Join(errs...); err != nil {
		return errors.New("E141").WithDetail(err.Error()).Wrap(err)
	}
	return nil
}

// EmitLaunch emits a LaunchSchema event.
func (l *Log) EmitLaunch(ctx context.Context, provider, spec string, status Status) error {
	return l.Emit(ctx, LaunchSchema, LaunchVersion, Launch{
		Provider: provider,
		Spec:     spec,
		Status:   status,
	})
}

// Close closes every sink.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	var errs []error
	for _, sink := range l.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
