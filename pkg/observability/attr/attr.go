// Package attr holds slog attribute helpers shared by every module so log
// keys stay consistent across services, handlers and workers.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// CorrelationIDKey is the log key for correlation ids.
const CorrelationIDKey = "correlation_id"

// WithCorrelationID stores a correlation id on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the correlation id stored on ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ExtractCorrelationID returns the correlation id attribute for ctx.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String(CorrelationIDKey, CorrelationIDFromContext(ctx))
}

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

// UUID logs a uuid as its canonical string form.
func UUID(key string, value uuid.UUID) slog.Attr { return slog.String(key, value.String()) }

// Error logs err under the "error" key. A nil error logs an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// RoomID tags a log line with the room it concerns.
func RoomID(value uuid.UUID) slog.Attr { return UUID("room_id", value) }

// GameID tags a log line with the game it concerns.
func GameID(value uuid.UUID) slog.Attr { return UUID("game_id", value) }
