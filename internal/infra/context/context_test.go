package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	context_ "github.com/mkrupp/todo-auth/internal/infra/context"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	_, ok := context_.SubjectFromContext(context.Background())
	assert.False(t, ok)

	_, ok = context_.SubjectFromContext(context_.WithSubject(context.Background(), ""))
	assert.False(t, ok, "empty subject is not an identity")

	subject, ok := context_.SubjectFromContext(context_.WithSubject(context.Background(), "0192-user"))
	assert.True(t, ok)
	assert.Equal(t, "0192-user", subject)
}

func TestTraceID(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context.Background())
	assert.False(t, ok)

	traceID, ok := context_.TraceIDFromContext(context_.WithTraceID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", traceID)
}
