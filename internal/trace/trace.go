// Package trace carries per-event correlation identifiers so every log
// line produced while handling one Slack event can be tied back to it.
package trace

import (
	"context"
	"log/slog"
	"sort"
)

// Context is an immutable bag of correlation identifiers. Extending it
// returns a copy; values set on a parent are never mutated in place.
type Context struct {
	EventID string
	TeamID  string
	Kind    string
	fields  map[string]string
}

// New creates a correlation context for one inbound event.
func New(eventID, teamID, kind string) Context {
	return Context{EventID: eventID, TeamID: teamID, Kind: kind}
}

// With returns a copy of the context carrying an extra field.
func (c Context) With(key, value string) Context {
	fields := make(map[string]string, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[key] = value
	c.fields = fields
	return c
}

// Field returns the enrichment field for key, or empty string.
func (c Context) Field(key string) string {
	return c.fields[key]
}

// Attrs renders the context as slog attributes. Enrichment fields are
// emitted in sorted key order so log lines stay stable.
func (c Context) Attrs() []any {
	attrs := []any{
		slog.String("event_id", c.EventID),
		slog.String("team_id", c.TeamID),
		slog.String("event_kind", c.Kind),
	}
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, c.fields[k]))
	}
	return attrs
}

type contextKey struct{}

// WithContext attaches the correlation context to ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the correlation context stored in ctx, or a zero
// value when none is present.
func FromContext(ctx context.Context) Context {
	if tc, ok := ctx.Value(contextKey{}).(Context); ok {
		return tc
	}
	return Context{}
}

// Logger returns log scoped with the correlation context found in ctx.
func Logger(ctx context.Context, log *slog.Logger) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With(FromContext(ctx).Attrs()...)
}
