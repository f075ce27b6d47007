package auth

import (
	"context"
	"errors"
)

// returned by operations that need a known caller when none is attached
var ErrCallerRequired = errors.New("test execution requires an authenticated caller")

type subjectKey struct{}

// attaches the authenticated subject to ctx
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// returns the subject attached by WithSubject; empty subjects don't count
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}
