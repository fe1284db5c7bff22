package policy

import (
	"travelbook/services/support-api/internal/domain/chat"
	"travelbook/services/support-api/internal/domain/identity"
)

// Operation is the access being requested on a conversation.
type Operation string

const (
	OperationRead  Operation = "read"
	OperationWrite Operation = "write"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNotAllowed Reason = "not_allowed"
	ReasonNotOwner   Reason = "not_owner"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny returns a negative decision with the given reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize decides whether the identity may perform op on the
// conversation. Pure and deterministic: no I/O, no clock, no state.
// Rules are evaluated in precedence order:
//
//  1. Staff may do anything.
//  2. Write on a public conversation: any customer or guest (the caller
//     writes only as itself; sender attribution is enforced upstream).
//  3. Read on a public conversation: anyone.
//  4. Private conversations: only the owning customer, or the owning
//     guest while the thread is still guest-held.
//  5. Everything else is denied.
func Authorize(id identity.Identity, conversation *chat.Conversation, op Operation) Decision {
	if id.IsStaff() {
		return Allow
	}

	if conversation.Type == chat.ConversationTypePublic {
		switch op {
		case OperationWrite:
			if id.Kind == identity.KindCustomer || id.Kind == identity.KindGuest {
				return Allow
			}
		case OperationRead:
			return Allow
		}
		return Deny(ReasonNotAllowed)
	}

	if conversation.Type == chat.ConversationTypePrivate {
		switch id.Kind {
		case identity.KindCustomer:
			if conversation.OwnedByCustomer(id.UserID) {
				return Allow
			}
		case identity.KindGuest:
			if conversation.OwnedByGuest(id.GuestID) {
				return Allow
			}
		}
		return Deny(ReasonNotOwner)
	}

	return Deny(ReasonNotAllowed)
}
