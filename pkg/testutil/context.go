package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/requestcontext"
)

// WithActor sets the actor id and role on the request context, as the auth
// middleware does for authenticated requests.
func WithActor(req *http.Request, userID uuid.UUID, role domain.Role) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRole sets only the caller's role.
func WithRole(req *http.Request, role domain.Role) *http.Request {
	return req.WithContext(requestcontext.WithRole(req.Context(), role))
}
