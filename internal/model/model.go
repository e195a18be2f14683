package model

import (
	"strings"
	"time"
)

type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// User is the authenticated session identity. Token is the bearer credential
// returned by the login endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DefaultStatus is used for appointments the server returned without a status.
const DefaultStatus = StatusPending

// ParseStatus normalizes a server status string.
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return DefaultStatus
	case "upcoming", "booked", "confirmed":
		return StatusScheduled
	case "canceled":
		return StatusCancelled
	}
	return Status(s)
}

// RefKind tags a relation as either a bare identifier or an expanded object.
type RefKind int

const (
	Unresolved RefKind = iota
	Resolved
)

type PatientRef struct {
	Kind  RefKind
	ID    string
	Name  string
	Email string
}

func UnresolvedPatient(id string) PatientRef {
	return PatientRef{Kind: Unresolved, ID: id}
}

func ResolvedPatient(id, name, email string) PatientRef {
	return PatientRef{Kind: Resolved, ID: id, Name: name, Email: email}
}

func (r PatientRef) Resolved() bool { return r.Kind == Resolved }

type ProviderRef struct {
	Kind           RefKind
	ID             string
	Name           string
	Specialization string
}

func UnresolvedProvider(id string) ProviderRef {
	return ProviderRef{Kind: Unresolved, ID: id}
}

func ResolvedProvider(id, name, specialization string) ProviderRef {
	return ProviderRef{Kind: Resolved, ID: id, Name: name, Specialization: specialization}
}

func (r ProviderRef) Resolved() bool { return r.Kind == Resolved }

// Appointment is the canonical, display-ready record. It is only ever built
// from a server response.
type Appointment struct {
	ID       string
	DateTime time.Time
	Patient  *PatientRef
	Provider ProviderRef
	Status   Status
	Notes    string
}

type AuditLog struct {
	ID        string
	Action    string
	Actor     string
	Target    string
	Details   string
	Timestamp time.Time
}

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is a transient, dismissible notice shown after an action.
type Message struct {
	Kind MessageKind
	Text string
}

func Success(text string) *Message { return &Message{Kind: MessageSuccess, Text: text} }

func Failure(text string) *Message { return &Message{Kind: MessageError, Text: text} }
