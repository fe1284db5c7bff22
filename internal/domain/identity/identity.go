package identity

import (
	"context"
	"regexp"

	"github.com/golang-jwt/jwt/v5"

	"travelbook/services/support-api/internal/utils/platformerrors"
)

// Kind tags the three caller classes the policy engine distinguishes.
type Kind string

const (
	KindGuest    Kind = "guest"
	KindCustomer Kind = "customer"
	KindStaff    Kind = "staff"
)

// Identity is the resolved caller identity. Exactly one of UserID or
// GuestID is set depending on Kind.
type Identity struct {
	Kind    Kind
	UserID  string
	GuestID string
}

// IsStaff reports whether the identity carries a staff role claim.
func (i Identity) IsStaff() bool {
	return i.Kind == KindStaff
}

// Key returns the rate-limiter key for this identity.
func (i Identity) Key() string {
	switch i.Kind {
	case KindGuest:
		return "guest:" + i.GuestID
	default:
		return "user:" + i.UserID
	}
}

// guestIDPattern constrains self-declared guest tokens to a safe charset.
var guestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// FromGuestID validates a self-declared guest identifier and returns a
// guest identity. The resolver performs no I/O; format validation is the
// only gate an anonymous caller passes through.
func FromGuestID(ctx context.Context, raw string) (Identity, error) {
	if !guestIDPattern.MatchString(raw) {
		return Identity{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"invalid guest identifier",
			nil,
			"identity-invalid-guest-id",
		)
	}
	return Identity{Kind: KindGuest, GuestID: raw}, nil
}

// FromToken translates a validated JWT into a customer or staff identity.
// staffRoles lists the role-claim values that grant staff status.
func FromToken(ctx context.Context, token *jwt.Token, staffRoles []string) (Identity, error) {
	unauthenticated := func(msg string) error {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeUnauthorized,
			msg,
			nil,
			"identity-unauthenticated",
		)
	}

	if token == nil || !token.Valid {
		return Identity{}, unauthenticated("missing or invalid credential")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, unauthenticated("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, unauthenticated("token has no subject")
	}

	role, _ := claims["role"].(string)
	for _, staffRole := range staffRoles {
		if role == staffRole {
			return Identity{Kind: KindStaff, UserID: sub}, nil
		}
	}
	return Identity{Kind: KindCustomer, UserID: sub}, nil
}
