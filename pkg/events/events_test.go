package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	berrors "github.com/binderlink/binderlink/internal/errors"
)

type memorySink struct {
	capsules []Capsule
	err      error
	closed   bool
}

func (m *memorySink) Write(_ context.Context, c Capsule) error {
	if m.err != nil {
		return m.err
	}
	m.capsules = append(m.capsules, c)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func fixedClock(l *Log) time.Time {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return ts }
	return ts
}

func TestLog_DiscardsWithoutSinks(t *testing.T) {
	l := NewLog()
	if l.Enabled() {
		t.Error("Log without sinks should not be enabled")
	}
	// Invalid events are not even validated when nothing listens.
	if err := l.EmitLaunch(context.Background(), "", "", "bogus"); err != nil {
		t.Errorf("EmitLaunch = %v, want nil", err)
	}

	var nilLog *Log
	if nilLog.Enabled() || nilLog.Close() != nil {
		t.Error("nil Log should be disabled and closable")
	}
}

func TestLog_EmitLaunch(t *testing.T) {
	sink := &memorySink{}
	l := NewLog(sink)
	ts := fixedClock(l)

	if err := l.EmitLaunch(context.Background(), "gh", "gh/org%2Frepo/HEAD", StatusRequested); err != nil {
		t.Fatalf("EmitLaunch: %v", err)
	}
	if len(sink.capsules) != 1 {
		t.Fatalf("got %d capsules, want 1", len(sink.capsules))
	}

	c := sink.capsules[0]
	if c.Schema != LaunchSchema || c.Version != LaunchVersion {
		t.Errorf("capsule schema = %s v%d", c.Schema, c.Version)
	}
	if !c.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", c.Timestamp, ts)
	}
	if len(c.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", c.ID)
	}

	var ev Launch
	if err := json.Unmarshal(c.Event, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev != (Launch{Provider: "gh", Spec: "gh/org%2Frepo/HEAD", Status: StatusRequested}) {
		t.Errorf("event = %+v", ev)
	}
}

func TestLog_Validation(t *testing.T) {
	tests := []struct {
		name   string
		event  Launch
		wantOK bool
	}{
		{"valid", Launch{"gh", "gh/a%2Fb/HEAD", StatusSuccess}, true},
		{"empty ref segment", Launch{"zenodo", "zenodo/10.5281/zenodo.1/", StatusFailure}, true},
		{"empty provider", Launch{"", "gh/a/HEAD", StatusRequested}, false},
		{"spec missing segments", Launch{"gh", "gh-a-b", StatusRequested}, false},
		{"unknown status", Launch{"gh", "gh/a/HEAD", "building"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			err := NewLog(sink).EmitLaunch(context.Background(), tt.event.Provider, tt.event.Spec, tt.event.Status)
			if tt.wantOK {
				if err != nil {
					t.Errorf("EmitLaunch = %v", err)
				}
				return
			}
			if !berrors.HasCode(err, "E140") {
				t.Errorf("EmitLaunch = %v, want E140", err)
			}
			if len(sink.capsules) != 0 {
				t.Error("invalid event reached the sink")
			}
		})
	}
}

func TestLog_UnknownSchema(t *testing.T) {
	err := NewLog(&memorySink{}).Emit(context.Background(), LaunchSchema, 2, Launch{})
	if !berrors.HasCode(err, "E142") {
		t.Errorf("Emit = %v, want E142", err)
	}
}

func TestLog_SinkFailure(t *testing.T) {
	broken := &memorySink{err: errors.New("disk full")}
	ok := &memorySink{}
	l := NewLog(broken, ok)

	err := l.EmitLaunch(context.Background(), "gh", "gh/a/HEAD", StatusRequested)
	if !berrors.HasCode(err, "E141") {
		t.Fatalf("EmitLaunch = %v, want E141", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q should carry the sink error", err)
	}
	if len(ok.capsules) != 1 {
		t.Error("remaining sinks should still receive the event")
	}

	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !broken.closed || !ok.closed {
		t.Error("Close should close every sink")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(NewLogSink(&buf))
	fixedClock(l)

	ctx := context.Background()
	_ = l.EmitLaunch(ctx, "gh", "gh/a/HEAD", StatusRequested)
	_ = l.EmitLaunch(ctx, "gl", "gl/b/HEAD", StatusSuccess)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	for _, k := range []string{"level", "msg", "time"} {
		if _, ok := rec[k]; ok {
			t.Errorf("record carries log field %q", k)
		}
	}
	if rec["schema"] != LaunchSchema || rec["version"] != float64(1) || rec["timestamp"] != "2024-03-01T12:00:00Z" {
		t.Errorf("record = %v", rec)
	}
	ev, ok := rec["event"].(map[string]any)
	if !ok || ev["provider"] != "gh" || ev["status"] != "requested" {
		t.Errorf("event = %v", rec["event"])
	}
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "events.db")
	sink, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer sink.Close()

	l := NewLog(sink)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i, p := range []string{"gh", "gl", "zenodo"} {
		ts := start.Add(time.Duration(i) * 1500 * time.Millisecond)
		l.now = func() time.Time { return ts }
		if err := l.EmitLaunch(ctx, p, p+"/x/", StatusRequested); err != nil {
			t.Fatalf("EmitLaunch(%s): %v", p, err)
		}
	}

	got, err := sink.Recent(ctx, LaunchSchema, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d capsules, want 2", len(got))
	}

	var newest Launch
	if err := json.Unmarshal(got[0].Event, &newest); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if newest.Provider != "zenodo" {
		t.Errorf("newest provider = %q, want zenodo", newest.Provider)
	}
	if want := start.Add(3 * time.Second); !got[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got[0].Timestamp, want)
	}

	other, err := sink.Recent(ctx, "binderlink/other", 10)
	if err != nil || len(other) != 0 {
		t.Errorf("Recent(other) = %v, %v", other, err)
	}
}

func TestSQLiteSink_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := NewLog(first).EmitLaunch(ctx, "gh", "gh/a/HEAD", StatusSuccess); err != nil {
		t.Fatalf("EmitLaunch: %v", err)
	}
	first.Close()

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Recent(ctx, LaunchSchema, 10)
	if err != nil || len(got) != 1 {
		t.Errorf("Recent after reopen = %d, %v", len(got), err)
	}
}
