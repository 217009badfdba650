package logger

import (
	"context"

	pcontext "github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/context"
)

// WithContext returns a logger that tags every entry with the run ID and
// operation carried by ctx. Missing values are omitted.
func WithContext(ctx context.Context, log Logger) Logger {
	if ctx == nil {
		return log
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return log
	}
	return log.WithFields(fields...)
}

// ContextFields extracts tracing fields from ctx
func ContextFields(ctx context.Context) []Field {
	var fields []Field

	if runID := pcontext.GetRunID(ctx); runID != "" {
		fields = append(fields, WithField("run_id", runID))
	}
	if op := pcontext.GetOperation(ctx); op != "" {
		fields = append(fields, WithField("operation", op))
	}

	return fields
}
