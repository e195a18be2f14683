package auth

import (
	"fmt"

	"medibook-console/internal/exceptions"
	"medibook-console/internal/model"
)

// Portal is the login entry point a user signed in through. Each portal
// admits exactly one role.
type Portal string

const (
	PatientPortal  Portal = "patient"
	ProviderPortal Portal = "provider"
	AdminPortal    Portal = "admin"
)

var portalRole = map[Portal]model.Role{
	PatientPortal:  model.RolePatient,
	ProviderPortal: model.RoleProvider,
	AdminPortal:    model.RoleAdmin,
}

var deniedText = map[Portal]string{
	PatientPortal:  "Access denied: Not a patient.",
	ProviderPortal: "Access denied: Not a provider.",
	AdminPortal:    "Access denied: Not an admin.",
}

func ParsePortal(s string) (Portal, error) {
	p := Portal(s)
	if _, ok := portalRole[p]; !ok {
		return "", fmt.Errorf("unknown portal %q", s)
	}
	return p, nil
}

// Admit returns an access-denied error when role may not use this portal.
func (p Portal) Admit(role model.Role) error {
	want, ok := portalRole[p]
	if !ok {
		return exceptions.Denied("Access denied.")
	}
	if role != want {
		return exceptions.Denied(deniedText[p])
	}
	return nil
}
