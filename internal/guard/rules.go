package guard

import (
	"slices"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

type Rule int

const (
	AnyAuthenticated Rule = iota
	ClientOnly
	VendorOnly
	AdminOnly
	VendorOrAdmin
)

func forbidden() error { return apperr.E(apperr.Forbidden, "Access denied") }

// Authorize checks the role rule, one branch per role.
func Authorize(id user.Identity, rule Rule) error {
	switch id.Role {
	case user.RoleAdmin:
		if rule == AnyAuthenticated || rule == AdminOnly || rule == VendorOrAdmin {
			return nil
		}
	case user.RoleVendor:
		if rule == AnyAuthenticated || rule == VendorOnly || rule == VendorOrAdmin {
			return nil
		}
	case user.RoleClient:
		if rule == AnyAuthenticated || rule == ClientOnly {
			return nil
		}
	}
	return forbidden()
}

// CheckOwner passes only the owner; there is no admin bypass.
func CheckOwner(id user.Identity, ownerID string) error {
	if id.UserID != "" && id.UserID == ownerID {
		return nil
	}
	return forbidden()
}

// CheckVendor passes a vendor owning at least one of vendorIDs, or an admin
// when allowAdmin is set.
func CheckVendor(id user.Identity, vendorIDs []string, allowAdmin bool) error {
	switch id.Role {
	case user.RoleAdmin:
		if allowAdmin {
			return nil
		}
	case user.RoleVendor:
		if slices.Contains(vendorIDs, id.UserID) {
			return nil
		}
	}
	return forbidden()
}

// CheckViewer passes the owner, a line-item vendor or an admin.
func CheckViewer(id user.Identity, ownerID string, vendorIDs []string) error {
	switch id.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleVendor:
		if slices.Contains(vendorIDs, id.UserID) || id.UserID == ownerID {
			return nil
		}
	case user.RoleClient:
		if id.UserID == ownerID {
			return nil
		}
	}
	return forbidden()
}
