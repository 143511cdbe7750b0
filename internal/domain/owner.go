package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

type ownerKind uint8

const (
	ownerNone ownerKind = iota
	ownerUser
	ownerAnonymous
)

// CartOwner identifies who a cart belongs to: a registered user or an anonymous session.
// Exactly one of the two is set; construct it with UserOwner or AnonymousOwner.
type CartOwner struct {
	kind  ownerKind
	value string
}

// UserOwner returns the owner value for an authenticated user.
func UserOwner(userID string) CartOwner {
	return CartOwner{kind: ownerUser, value: strings.TrimSpace(userID)}
}

// AnonymousOwner returns the owner value for an anonymous session token.
func AnonymousOwner(token string) CartOwner {
	return CartOwner{kind: ownerAnonymous, value: strings.TrimSpace(token)}
}

func (o CartOwner) IsZero() bool {
	return o.kind == ownerNone || o.value == ""
}

// UserID returns the user id when the owner is a registered user.
func (o CartOwner) UserID() (string, bool) {
	return o.value, o.kind == ownerUser
}

// SessionToken returns the session token when the owner is anonymous.
func (o CartOwner) SessionToken() (string, bool) {
	return o.value, o.kind == ownerAnonymous
}

func (o CartOwner) IsAnonymous() bool {
	return o.kind == ownerAnonymous
}

// UsageIdentity is the key offer usage is counted under. Session tokens are hashed so
// the raw token never lands in the usage table.
func (o CartOwner) UsageIdentity() string {
	switch o.kind {
	case ownerUser:
		return "user:" + o.value
	case ownerAnonymous:
		sum := sha256.Sum256([]byte(o.value))
		return "anon:" + hex.EncodeToString(sum[:])
	default:
		return ""
	}
}

// Equal reports whether two owners denote the same identity.
func (o CartOwner) Equal(other CartOwner) bool {
	return o.kind == other.kind && o.value == other.value
}

func (o CartOwner) String() string {
	switch o.kind {
	case ownerUser:
		return "user:" + o.value
	case ownerAnonymous:
		return "anonymous"
	default:
		return "none"
	}
}

func (o CartOwner) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case ownerUser:
		return json.Marshal(map[string]string{"type": "user", "userId": o.value})
	case ownerAnonymous:
		return json.Marshal(map[string]string{"type": "anonymous"})
	default:
		return []byte("null"), nil
	}
}

type customerKind uint8

const (
	customerNone customerKind = iota
	customerRegistered
	customerGuest
)

// CustomerRef points an order at either a registered user or a walk-in guest record.
type CustomerRef struct {
	kind customerKind
	id   string
}

func RegisteredCustomer(userID string) CustomerRef {
	return CustomerRef{kind: customerRegistered, id: userID}
}

func GuestCustomer(guestID string) CustomerRef {
	return CustomerRef{kind: customerGuest, id: guestID}
}

func (c CustomerRef) IsZero() bool {
	return c.kind == customerNone || c.id == ""
}

// UserID returns the registered user id, if any.
func (c CustomerRef) UserID() (string, bool) {
	return c.id, c.kind == customerRegistered
}

// GuestID returns the guest record id, if any.
func (c CustomerRef) GuestID() (string, bool) {
	return c.id, c.kind == customerGuest
}

// Columns splits the reference into the two nullable columns it is stored in.
func (c CustomerRef) Columns() (userID, guestID *string) {
	switch c.kind {
	case customerRegistered:
		id := c.id
		return &id, nil
	case customerGuest:
		id := c.id
		return nil, &id
	default:
		return nil, nil
	}
}

// CustomerRefFromColumns rebuilds a reference from stored columns. Both set is corrupt data.
func CustomerRefFromColumns(userID, guestID *string) (CustomerRef, error) {
	switch {
	case userID != nil && guestID != nil:
		return CustomerRef{}, fmt.Errorf("%w: customer reference has both user and guest", ErrIntegrity)
	case userID != nil:
		return RegisteredCustomer(*userID), nil
	case guestID != nil:
		return GuestCustomer(*guestID), nil
	default:
		return CustomerRef{}, nil
	}
}

func (c CustomerRef) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case customerRegistered:
		return json.Marshal(map[string]string{"type": "registered", "id": c.id})
	case customerGuest:
		return json.Marshal(map[string]string{"type": "guest", "id": c.id})
	default:
		return []byte("null"), nil
	}
}
