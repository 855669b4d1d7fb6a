package common

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	ownerIDKey
)

// WithRequestID tags ctx with the id forwarded to remote backends. Job
// workers use the job id; the inbox uses a content hash prefix.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOwnerID tags ctx with the user on whose behalf work runs.
func WithOwnerID(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerIDKey, owner)
}

func OwnerIDFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerIDKey).(string)
	return owner
}
