package events

import (
	"context"
	"io"
	"log/slog"
)

// LogSink writes capsules as JSON lines, one object per event, with no
// log-level or message fields.
type LogSink struct {
	logger *slog.Logger
	closer io.Closer
}

// NewLogSink writes to w. If w is an io.Closer, Close closes it.
func NewLogSink(w io.Writer) *LogSink {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 {
				switch a.Key {
				case slog.TimeKey, slog.LevelKey, slog.MessageKey:
					return slog.Attr{}
				}
			}
			return a
		},
	})
	s := &LogSink{logger: slog.New(h)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Write implements Sink.
func (s *LogSink) Write(ctx context.Context, c Capsule) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "",
		slog.String("id", c.ID),
		slog.Time("timestamp", c.Timestamp),
		slog.String("schema", c.Schema),
		slog.Int("version", c.Version),
		slog.Any("event", c.Event),
	)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
