// Package auth carries the identity of the office or field operator making a
// request. The fair registry has no login; operators name themselves through
// a request header and the name only labels the audit trail.
package auth

import (
	"context"
	"strings"
)

// OperatorHeader is the request header naming the operator.
const OperatorHeader = "X-Fair-Operator"

// MaxOperatorLength caps stored operator names.
const MaxOperatorLength = 64

type contextKey string

const operatorKey contextKey = "operator"

// ContextWithOperator returns a new context that carries the operator name.
// Blank names leave the context unchanged.
func ContextWithOperator(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	name = NormalizeOperator(name)
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, operatorKey, name)
}

// OperatorFromContext retrieves the operator name from the context, if any.
func OperatorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(operatorKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// NormalizeOperator trims the name and cuts it to MaxOperatorLength runes.
func NormalizeOperator(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxOperatorLength {
		name = strings.TrimSpace(string(runes[:MaxOperatorLength]))
	}
	return name
}
