package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
)

// Actor is the authenticated caller of a fulfillment operation.
type Actor struct {
	ID       uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// System is used for transitions the platform performs on its own, such as
// the cascade of an order cancellation.
var System = Actor{Role: enums.ActorRoleAdmin}

func (a Actor) IsAdmin() bool    { return a.Role == enums.ActorRoleAdmin }
func (a Actor) IsCourier() bool  { return a.Role == enums.ActorRoleCourier }
func (a Actor) IsCustomer() bool { return a.Role == enums.ActorRoleCustomer }
func (a Actor) IsVendor() bool   { return a.Role == enums.ActorRoleVendor }

// OwnsVendor reports whether a vendor actor acts for vendorID.
func (a Actor) OwnsVendor(vendorID uuid.UUID) bool {
	return a.IsVendor() && a.VendorID != nil && *a.VendorID == vendorID
}

// Ref is the outbox attribution of the actor.
func (a Actor) Ref() *outbox.ActorRef {
	return &outbox.ActorRef{ActorID: a.ID, VendorID: a.VendorID, Role: string(a.Role)}
}
