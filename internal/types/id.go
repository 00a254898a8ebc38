// README: Identifier and caller identity types shared across modules.
package types

import (
	"strconv"
	"strings"
)

// ID is a store-assigned numeric identifier.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID accepts positive base-10 identifiers only.
func ParseID(v string) (ID, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return ID(n), true
}

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleDriver   Role = "DRIVER"
)

// NormalizeRole upper-cases a role and strips the ROLE_ namespace prefix,
// so "ROLE_driver", "role_DRIVER" and "driver" all yield RoleDriver.
func NormalizeRole(raw string) Role {
	r := strings.ToUpper(strings.TrimSpace(raw))
	return Role(strings.TrimPrefix(r, "ROLE_"))
}

// Principal is the authenticated caller as supplied by the identity gateway.
type Principal struct {
	ID   ID
	Role Role
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
