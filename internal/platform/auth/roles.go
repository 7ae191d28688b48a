package auth

import (
	"errors"
	"fmt"
)

// ErrRoleInconnu is returned when a role string falls outside the closed set.
var ErrRoleInconnu = errors.New("rôle inconnu")

// Role is the closed set of user roles. Keeping it a dedicated type (rather
// than raw strings) forces every permission predicate through ParseRole, so an
// unknown role is an error at the boundary instead of a silent deny-or-allow.
type Role string

const (
	RolePatient       Role = "patient"
	RoleMedecin       Role = "medecin"
	RoleRadiologue    Role = "radiologue"
	RoleLaborantin    Role = "laborantin"
	RoleInfirmier     Role = "infirmier"
	RoleAdministratif Role = "administratif"
)

// AllRoles lists every valid role, in the order they appear on signup forms.
var AllRoles = []Role{
	RolePatient,
	RoleMedecin,
	RoleRadiologue,
	RoleLaborantin,
	RoleInfirmier,
	RoleAdministratif,
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleMedecin, RoleRadiologue, RoleLaborantin, RoleInfirmier, RoleAdministratif:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrRoleInconnu, s)
}

func (r Role) String() string { return string(r) }

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Clinical reports whether the role belongs to care staff (everyone except
// patients and administrative staff).
func (r Role) Clinical() bool {
	switch r {
	case RoleMedecin, RoleRadiologue, RoleLaborantin, RoleInfirmier:
		return true
	}
	return false
}

// In reports membership in a role set. All endpoint guards reduce to this
// single set-membership test over the caller's one role.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
