package views

import (
	"context"

	"github.com/AdamBeresnev/op-groups/internal/middleware"
)

// GetOperator returns the name of the operator signed in to this session, if any.
func GetOperator(ctx context.Context) string {
	operator, _ := middleware.GetOperatorFromContext(ctx)
	return operator
}
