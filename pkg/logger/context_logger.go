package logger

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder accumulates fields and writes one entry enriched from ctx
type ContextLogBuilder struct {
	logger  *zap.Logger
	ctx     context.Context
	level   zapcore.Level
	fields  []zap.Field
	message string
	enabled bool
}

func newBuilder(ctx context.Context, level zapcore.Level, message string) *ContextLogBuilder {
	l := GetLogger()
	b := &ContextLogBuilder{
		logger:  l,
		ctx:     ctx,
		level:   level,
		message: message,
		enabled: l.Core().Enabled(level),
	}
	if b.enabled {
		b.fields = make([]zap.Field, 0, 12)
		b.extractContextFields()
	}
	return b
}

// extractContextFields mengekstrak fields dari context
func (b *ContextLogBuilder) extractContextFields() {
	if b.ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(b.ctx); requestID != "" {
		b.fields = append(b.fields, zap.String("request_id", requestID))
	}
	if correlationID := ctxutil.GetCorrelationID(b.ctx); correlationID != "" {
		b.fields = append(b.fields, zap.String("correlation_id", correlationID))
	}
	if clientIP := ctxutil.GetClientIP(b.ctx); clientIP != "" {
		b.fields = append(b.fields, zap.String("client_ip", clientIP))
	}
	if userID := ctxutil.GetUserID(b.ctx); userID != "" {
		b.fields = append(b.fields, zap.String("user_id", userID))
	}
	if module := ctxutil.GetModule(b.ctx); module != "" {
		b.fields = append(b.fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(b.ctx); function != "" {
		b.fields = append(b.fields, zap.String("function", function))
	}
}

func (b *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.String(key, value))
	}
	return b
}

func (b *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Int(key, value))
	}
	return b
}

func (b *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Int64(key, value))
	}
	return b
}

func (b *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Bool(key, value))
	}
	return b
}

func (b *ContextLogBuilder) Time(key string, value time.Time) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Time(key, value))
	}
	return b
}

func (b *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Duration("duration", value))
	}
	return b
}

func (b *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if b.enabled && err != nil {
		b.fields = append(b.fields, zap.Error(err))
	}
	return b
}

func (b *ContextLogBuilder) Strings(key string, values []string) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Strings(key, values))
	}
	return b
}

func (b *ContextLogBuilder) Any(key string, value interface{}) *ContextLogBuilder {
	if b.enabled {
		b.fields = append(b.fields, zap.Any(key, value))
	}
	return b
}

// Log writes the entry. Entries for an already cancelled request are still written
// because they usually describe why it was cancelled.
func (b *ContextLogBuilder) Log() {
	if !b.enabled {
		return
	}

	if ce := b.logger.Check(b.level, b.message); ce != nil {
		ce.Write(b.fields...)
	}
}

func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.InfoLevel, message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.WarnLevel, message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.ErrorLevel, message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return newBuilder(ctx, zapcore.DebugLevel, message)
}
