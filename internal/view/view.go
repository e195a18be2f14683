// Package view decides what each role gets to see and do. Nothing here is
// authorization; hiding a control only spares the user a request the server
// would refuse anyway.
package view

import (
	"unicode"
	"unicode/utf8"

	"medibook-console/internal/model"
)

type Field string

const (
	FieldDateTime   Field = "dateTime"
	FieldProviderID Field = "providerId"
	FieldPatientID  Field = "patientId"
	FieldNotes      Field = "notes"
)

type Action string

const (
	ActionBook             Action = "book"
	ActionEdit             Action = "edit"
	ActionCancel           Action = "cancel"
	ActionViewAppointments Action = "view-appointments"
	ActionMedicalInfo      Action = "medical-info"
	ActionManageUsers      Action = "manage-users"
	ActionAuditLogs        Action = "audit-logs"
	ActionCreateProvider   Action = "create-provider"
)

var permissions = map[model.Role]map[Action]bool{
	model.RolePatient: {
		ActionBook: true, ActionEdit: true, ActionCancel: true,
		ActionViewAppointments: true, ActionMedicalInfo: true,
	},
	model.RoleProvider: {
		ActionViewAppointments: true,
	},
	model.RoleAdmin: {
		ActionBook: true, ActionEdit: true, ActionCancel: true,
		ActionViewAppointments: true, ActionManageUsers: true,
		ActionAuditLogs: true, ActionCreateProvider: true,
	},
}

// Composer answers rendering questions for one role.
type Composer struct {
	role model.Role
}

func For(role model.Role) Composer { return Composer{role: role} }

func (c Composer) Role() model.Role { return c.role }

func (c Composer) ShowField(f Field) bool {
	if f == FieldPatientID {
		return c.role == model.RoleAdmin
	}
	return true
}

// BookingFields lists the booking form inputs in display order.
func (c Composer) BookingFields() []Field {
	out := []Field{FieldDateTime, FieldProviderID}
	if c.ShowField(FieldPatientID) {
		out = append(out, FieldPatientID)
	}
	return append(out, FieldNotes)
}

func (c Composer) CanPerform(a Action) bool {
	return permissions[c.role][a]
}

// RoleChangeEnabled reports whether actor gets an active role-change control
// for target. Admin accounts are never demoted from the client, and nobody
// edits their own role.
func RoleChangeEnabled(actor, target model.User, role model.Role) bool {
	switch {
	case actor.Role != model.RoleAdmin:
		return false
	case target.Role == model.RoleAdmin:
		return false
	case actor.ID != "" && actor.ID == target.ID:
		return false
	case !role.Valid() || role == target.Role:
		return false
	}
	return true
}

const (
	RouteLogin             = "/login"
	RoutePatientDashboard  = "/dashboard"
	RouteProviderDashboard = "/admin/providers/dashboard"
	RouteAdminDashboard    = "/admin/dashboard"
)

func (c Composer) Dashboard() string {
	switch c.role {
	case model.RolePatient:
		return RoutePatientDashboard
	case model.RoleProvider:
		return RouteProviderDashboard
	case model.RoleAdmin:
		return RouteAdminDashboard
	}
	return RouteLogin
}

func StatusLabel(s model.Status) string {
	if s == "" {
		s = model.DefaultStatus
	}
	str := string(s)
	r, n := utf8.DecodeRuneInString(str)
	return string(unicode.ToUpper(r)) + str[n:]
}
