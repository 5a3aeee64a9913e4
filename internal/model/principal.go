package model

import "github.com/google/uuid"

type Role string

const (
	RoleGM       Role = "GM"
	RoleSupplier Role = "SUPPLIER"
)

// Principal is the authenticated caller extracted from the access token.
// SupplierID is set only for supplier accounts and scopes which contracts
// they may see and edit.
type Principal struct {
	UserID     uuid.UUID
	Role       Role
	SupplierID *uuid.UUID
}

func (p Principal) IsGM() bool       { return p.Role == RoleGM }
func (p Principal) IsSupplier() bool { return p.Role == RoleSupplier }

// OwnsContract reports whether the principal is the supplier party of the
// given contract. Name-only suppliers have no account, so only the id form
// can ever match.
func (p Principal) OwnsContract(c *Contract) bool {
	if !p.IsSupplier() || p.SupplierID == nil || c == nil || c.SupplierID == nil {
		return false
	}
	return *p.SupplierID == *c.SupplierID
}
