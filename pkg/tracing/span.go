package tracing

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
)

// StartSpan открывает дочерний спан этапа пайплайна.
func StartSpan(ctx context.Context, operation string, tags opentracing.Tags) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operation, tags)
}

// Finish закрывает спан, помечая ошибку, если она есть.
func Finish(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	span.Finish()
}
