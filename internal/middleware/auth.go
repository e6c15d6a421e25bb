package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/op-groups/internal/httputil"
	"github.com/alexedwards/scs/v2"
)

type ContextKey string

const OperatorKey ContextKey = "operator"

// OperatorSessionKey is where the operator name lives in the scs session.
const OperatorSessionKey = "operator"

// LoadOperator puts the session operator, if any, into the request context.
func LoadOperator(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := sessionManager.GetString(r.Context(), OperatorSessionKey)
			if operator == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}

// RequireOperator rejects requests without an operator. Use after LoadOperator.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetOperatorFromContext(r.Context()); !ok {
			httputil.Unauthorized(w, "Operator session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, OperatorKey, operator)
}

func GetOperatorFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(OperatorKey)
	if val == nil {
		return "", false
	}

	operator, ok := val.(string)
	return operator, ok && operator != ""
}
