package view

import (
	"time"

	"medibook-console/internal/model"
)

const (
	dateTimeLayout = "02/01/2006, 03:04 PM"
	dateLayout     = "02/01/2006"
	timeLayout     = "03:04 PM"
)

// FormatDate renders t as DD/MM/YYYY, hh:mm AM in loc. The zero time
// renders as an empty string.
func FormatDate(t time.Time, loc *time.Location) string {
	return format(t, loc, dateTimeLayout)
}

func FormatDateOnly(t time.Time, loc *time.Location) string {
	return format(t, loc, dateLayout)
}

func FormatTimeOnly(t time.Time, loc *time.Location) string {
	return format(t, loc, timeLayout)
}

func format(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}

func (c Composer) AppointmentColumns() []string {
	switch c.role {
	case model.RolePatient:
		return []string{"ID", "Date", "Time", "Provider", "Specialization", "Status", "Notes"}
	case model.RoleProvider:
		return []string{"ID", "Date", "Time", "Patient", "Status", "Notes"}
	}
	return []string{"ID", "Date", "Time", "Patient", "Provider", "Status", "Notes"}
}

// AppointmentRow lines up with AppointmentColumns for the same role.
func (c Composer) AppointmentRow(a model.Appointment, loc *time.Location) []string {
	date, clock := FormatDateOnly(a.DateTime, loc), FormatTimeOnly(a.DateTime, loc)
	switch c.role {
	case model.RolePatient:
		return []string{a.ID, date, clock, ProviderName(a.Provider), a.Provider.Specialization, StatusLabel(a.Status), a.Notes}
	case model.RoleProvider:
		return []string{a.ID, date, clock, PatientName(a.Patient), StatusLabel(a.Status), a.Notes}
	}
	return []string{a.ID, date, clock, PatientName(a.Patient), ProviderName(a.Provider), StatusLabel(a.Status), a.Notes}
}

func ProviderName(r model.ProviderRef) string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" {
		return r.ID
	}
	return "-"
}

func PatientName(r *model.PatientRef) string {
	switch {
	case r == nil:
		return "-"
	case r.Name != "":
		return r.Name
	case r.ID != "":
		return r.ID
	}
	return "-"
}

func UserColumns() []string {
	return []string{"ID", "Name", "Email", "Role"}
}

func UserRow(u model.User) []string {
	return []string{u.ID, u.Name, u.Email, string(u.Role)}
}

func AuditLogColumns() []string {
	return []string{"When", "Action", "Actor", "Target", "Details"}
}

func AuditLogRow(l model.AuditLog, loc *time.Location) []string {
	return []string{FormatDate(l.Timestamp, loc), l.Action, l.Actor, l.Target, l.Details}
}
