package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink writes each event as one structured log entry.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("audit")}
}

func (s *ZapSink) Emit(_ context.Context, event Event) {
	if s == nil {
		return
	}
	fields := make([]zap.Field, 0, 9)
	fields = append(fields,
		zap.Time("timestamp", event.Timestamp),
		zap.String("status", event.Status),
		zap.Bool("success", event.Success),
	)
	if event.Operation != "" {
		fields = append(fields, zap.String("operation", event.Operation))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.LeftAttempts > 0 {
		fields = append(fields, zap.Int("left_attempts", event.LeftAttempts))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	s.logger.Info(event.EventType, fields...)
}
