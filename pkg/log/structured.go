package log

import (
	"context"

	"go.uber.org/zap"

	"github.com/kreaite/studio-core/pkg/requestid"
)

// StructuredLogger produces operation-scoped log entries. Services and
// handlers build one tracer per operation and log a single outcome line:
//
//	tracer := log.NewDebugLogger("job_service").WithContext(ctx).Operation("create_job").Build()
//	...
//	tracer.Success().WithParam("job_id", id).Log()
type StructuredLogger struct {
	name string
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *OperationBuilder {
	return &OperationBuilder{
		name:      l.name,
		requestID: requestid.FromContext(ctx),
	}
}

type OperationBuilder struct {
	name      string
	operation string
	requestID string
	params    []any
}

func (b *OperationBuilder) Operation(op string) *OperationBuilder {
	b.operation = op
	return b
}

func (b *OperationBuilder) WithParam(key string, value any) *OperationBuilder {
	b.params = append(b.params, key, value)
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	return &OperationTracer{builder: b}
}

type OperationTracer struct {
	builder *OperationBuilder
	err     error
	success bool
}

func (t *OperationTracer) WithParam(key string, value any) *OperationTracer {
	t.builder.WithParam(key, value)
	return t
}

func (t *OperationTracer) Success() *OperationTracer {
	t.success = true
	return t
}

func (t *OperationTracer) Error(err error) *OperationTracer {
	t.err = err
	return t
}

func (t *OperationTracer) Log() {
	kv := make([]any, 0, len(t.builder.params)+6)
	kv = append(kv, "operation", t.builder.operation)
	if t.builder.requestID != "" {
		kv = append(kv, "request_id", t.builder.requestID)
	}
	kv = append(kv, t.builder.params...)

	logger := zap.S().Named(t.builder.name)
	switch {
	case t.err != nil:
		kv = append(kv, "error", t.err)
		logger.Errorw("operation failed", kv...)
	case t.success:
		logger.Debugw("operation succeeded", kv...)
	default:
		logger.Debugw("operation", kv...)
	}
}
