package context

import (
	"context"
)

const contextKeySubject = contextKey("subject")

// SubjectFromContext extracts the authenticated subject (the user ID taken from a
// verified token) from the context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(contextKeySubject).(string)

	return subject, ok && subject != ""
}

// WithSubject returns a context carrying the authenticated subject.
// It is set by the authorizing middleware and lives for a single request.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeySubject, subject)
}
