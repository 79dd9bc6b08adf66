// Package auth holds the per-operation authorization check. Every
// handler that touches user-owned data calls Authorize explicitly;
// there is no dynamic permission dispatch.
package auth

import (
	"errors"
)

var ErrForbidden = errors.New("forbidden")

// Actor is the authenticated caller, as handed over by the upstream
// identity provider. The core trusts it.
type Actor struct {
	ID    string
	Staff bool
}

// Operation names a resource access for audit purposes.
type Operation string

const (
	OpReadCart      Operation = "cart.read"
	OpWriteCart     Operation = "cart.write"
	OpReadWishlist  Operation = "wishlist.read"
	OpWriteWishlist Operation = "wishlist.write"
	OpReadOrder     Operation = "order.read"
	OpPlaceOrder    Operation = "order.place"
	OpReadPayment   Operation = "payment.read"
	OpWritePayment  Operation = "payment.write"
	OpWriteCatalog  Operation = "catalog.write"
	OpReadUser      Operation = "user.read"
	OpWriteUser     Operation = "user.write"
)

// Authorize decides whether actor may perform op on a resource owned by
// ownerID. Staff may act on anything; everyone else only on their own
// resources. Catalog writes are staff-only regardless of ownership.
func Authorize(actor Actor, op Operation, ownerID string) error {
	if actor.Staff {
		return nil
	}
	if op == OpWriteCatalog {
		return ErrForbidden
	}
	if actor.ID != "" && actor.ID == ownerID {
		return nil
	}
	return ErrForbidden
}
