package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/types"
)

type ctxKey struct{}

var requestDataKey = ctxKey{}

// RequestData carries the authenticated identity for the lifetime of one
// request: who is calling, in which role, and which timezone their
// calendar input should be interpreted in.
type RequestData struct {
	UserID   uuid.UUID
	Role     types.Role
	Timezone string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}
