package logger

import "context"

type requestIDKey struct{}

// WithRequestID кладёт id запроса в контекст, чтобы все этапы логировали его одинаково.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
