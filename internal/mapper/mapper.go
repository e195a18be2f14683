// Package mapper turns server DTOs into canonical model records. Every
// function here is total: malformed or missing fields degrade to empty
// values, never to an error.
package mapper

import (
	"bytes"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"medibook-console/internal/api"
	"medibook-console/internal/model"
)

// expanded is the shape of a populated user reference.
type expanded struct {
	ID             string               `json:"_id"`
	AltID          string               `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Specialization string               `json:"specialization"`
	ProviderInfo   *api.ProviderInfoDTO `json:"providerInfo"`
}

func (e expanded) key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.AltID
}

type refShape int

const (
	shapeAbsent refShape = iota
	shapeID
	shapeObject
)

// decodeRef classifies a raw reference and decodes whichever form it has.
func decodeRef(raw json.RawMessage) (refShape, string, expanded) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return shapeAbsent, "", expanded{}
	}
	switch raw[0] {
	case '"':
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return shapeID, "", expanded{}
		}
		return shapeID, id, expanded{}
	case '{':
		var e expanded
		if err := json.Unmarshal(raw, &e); err != nil {
			e = looseExpanded(raw)
		}
		return shapeObject, e.key(), e
	}
	// numeric ids
	return shapeID, string(raw), expanded{}
}

// looseExpanded decodes a reference object one field at a time, dropping
// only the fields whose type does not fit.
func looseExpanded(raw json.RawMessage) expanded {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return expanded{}
	}
	str := func(name string) string {
		var v string
		_ = json.Unmarshal(fields[name], &v)
		return v
	}
	e := expanded{
		ID:             str("_id"),
		AltID:          str("id"),
		Name:           str("name"),
		Email:          str("email"),
		Specialization: str("specialization"),
	}
	var info map[string]json.RawMessage
	if json.Unmarshal(fields["providerInfo"], &info) == nil && info != nil {
		pi := &api.ProviderInfoDTO{}
		_ = json.Unmarshal(info["specialization"], &pi.Specialization)
		_ = json.Unmarshal(info["clinicName"], &pi.ClinicName)
		_ = json.Unmarshal(info["licenseNumber"], &pi.LicenseNumber)
		e.ProviderInfo = pi
	}
	return e
}

func patientRef(raw json.RawMessage) *model.PatientRef {
	shape, id, e := decodeRef(raw)
	switch shape {
	case shapeAbsent:
		return nil
	case shapeObject:
		r := model.ResolvedPatient(id, e.Name, e.Email)
		return &r
	}
	r := model.UnresolvedPatient(id)
	return &r
}

func providerRef(raw json.RawMessage) model.ProviderRef {
	shape, id, e := decodeRef(raw)
	if shape != shapeObject {
		return model.UnresolvedProvider(id)
	}
	name, spec := e.Name, e.Specialization
	if e.ProviderInfo != nil {
		if name == "" {
			name = e.ProviderInfo.ClinicName
		}
		if spec == "" {
			spec = e.ProviderInfo.Specialization
		}
	}
	return model.ResolvedProvider(id, name, spec)
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Instant parses a server timestamp. Zone-less values are read as UTC.
func Instant(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func appointmentInstant(d api.AppointmentDTO) time.Time {
	if t := Instant(d.DateTime); !t.IsZero() {
		return t
	}
	if d.Date == "" {
		return time.Time{}
	}
	if d.Time == "" {
		t, _ := time.Parse(time.DateOnly, strings.TrimSpace(d.Date))
		return t
	}
	return Instant(strings.TrimSpace(d.Date) + "T" + strings.TrimSpace(d.Time))
}

func Appointment(d api.AppointmentDTO) model.Appointment {
	return model.Appointment{
		ID:       d.Key(),
		DateTime: appointmentInstant(d),
		Patient:  patientRef(d.PatientID),
		Provider: providerRef(d.ProviderID),
		Status:   model.ParseStatus(d.Status),
		Notes:    d.Notes,
	}
}

func Appointments(ds []api.AppointmentDTO) []model.Appointment {
	out := make([]model.Appointment, len(ds))
	for i, d := range ds {
		out[i] = Appointment(d)
	}
	return out
}

// User maps a user record. The result never carries a token.
func User(d api.UserDTO) model.User {
	return model.User{
		ID:    d.Key(),
		Email: d.Email,
		Name:  d.Name,
		Role:  model.Role(strings.ToLower(strings.TrimSpace(d.Role))),
	}
}

func Users(ds []api.UserDTO) []model.User {
	out := make([]model.User, len(ds))
	for i, d := range ds {
		out[i] = User(d)
	}
	return out
}

func AuditLog(d api.AuditLogDTO) model.AuditLog {
	ts := Instant(d.Timestamp)
	if ts.IsZero() {
		ts = Instant(d.CreatedAt)
	}
	return model.AuditLog{
		ID:        d.Key(),
		Action:    d.Action,
		Actor:     actor(d.UserID),
		Target:    d.Target,
		Details:   details(d.Details),
		Timestamp: ts,
	}
}

func AuditLogs(ds []api.AuditLogDTO) []model.AuditLog {
	out := make([]model.AuditLog, len(ds))
	for i, d := range ds {
		out[i] = AuditLog(d)
	}
	return out
}

// actor prefers a display name, then an email, then the bare id.
func actor(raw json.RawMessage) string {
	shape, id, e := decodeRef(raw)
	if shape != shapeObject {
		return id
	}
	switch {
	case e.Name != "":
		return e.Name
	case e.Email != "":
		return e.Email
	}
	return id
}

func details(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
