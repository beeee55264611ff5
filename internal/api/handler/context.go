package handler

import (
	"context"

	"github.com/walkplan/walkplan/internal/api/middleware"
)

// GetOwnerID retrieves the authenticated owner ID from the context.
// This is a convenience wrapper around middleware.GetOwnerID.
func GetOwnerID(ctx context.Context) string {
	return middleware.GetOwnerID(ctx)
}
