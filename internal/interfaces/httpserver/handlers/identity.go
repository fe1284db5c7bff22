package handlers

import (
	"github.com/gin-gonic/gin"

	"travelbook/services/support-api/internal/domain/identity"
	"travelbook/services/support-api/internal/infrastructure/auth"
	"travelbook/services/support-api/internal/utils/platformerrors"
)

// GuestIDHeader carries the self-declared guest identifier for
// anonymous callers.
const GuestIDHeader = "X-Guest-ID"

// resolveIdentity derives the caller identity for a request. A
// validated bearer token wins over the guest header; a request with
// neither has no identity and is rejected.
func resolveIdentity(c *gin.Context, staffRoles []string) (identity.Identity, error) {
	ctx := c.Request.Context()

	if token := auth.TokenFromContext(c); token != nil {
		return identity.FromToken(ctx, token, staffRoles)
	}

	if guestID := c.GetHeader(GuestIDHeader); guestID != "" {
		return identity.FromGuestID(ctx, guestID)
	}

	return identity.Identity{}, platformerrors.NewError(
		ctx,
		platformerrors.LayerHandler,
		platformerrors.ErrorTypeUnauthorized,
		"request carries neither a bearer token nor a guest identifier",
		nil,
		"handler-no-identity",
	)
}
