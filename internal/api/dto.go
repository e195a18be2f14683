package api

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// AppointmentDTO is an appointment exactly as the server sends it. The
// patient and provider references arrive either as a bare id string or as an
// expanded object, so they stay raw until the mapper decides which.
type AppointmentDTO struct {
	ID         string          `json:"_id,omitempty"`
	AltID      string          `json:"id,omitempty"`
	DateTime   string          `json:"dateTime,omitempty"`
	Date       string          `json:"date,omitempty"`
	Time       string          `json:"time,omitempty"`
	PatientID  json.RawMessage `json:"patientId,omitempty"`
	ProviderID json.RawMessage `json:"providerId,omitempty"`
	Status     string          `json:"status,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// Key returns whichever identifier the server populated.
func (d AppointmentDTO) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.AltID
}

type ProviderInfoDTO struct {
	Specialization string `json:"specialization,omitempty"`
	ClinicName     string `json:"clinicName,omitempty"`
	LicenseNumber  string `json:"licenseNumber,omitempty"`
}

type UserDTO struct {
	ID           string           `json:"_id,omitempty"`
	AltID        string           `json:"id,omitempty"`
	Email        string           `json:"email,omitempty"`
	Name         string           `json:"name,omitempty"`
	Role         string           `json:"role,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	ProviderInfo *ProviderInfoDTO `json:"providerInfo,omitempty"`
	MedicalInfo  *MedicalInfo     `json:"medicalInfo,omitempty"`
}

func (d UserDTO) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.AltID
}

type MedicalInfo struct {
	DateOfBirth    string   `json:"dateOfBirth"`
	BloodType      string   `json:"bloodType"`
	Allergies      []string `json:"allergies"`
	MedicalHistory []string `json:"medicalHistory"`
}

type AuditLogDTO struct {
	ID        string          `json:"_id,omitempty"`
	AltID     string          `json:"id,omitempty"`
	Action    string          `json:"action,omitempty"`
	UserID    json.RawMessage `json:"userId,omitempty"`
	Target    string          `json:"target,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

func (d AuditLogDTO) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.AltID
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	ID    string `json:"id,omitempty"`
	AltID string `json:"_id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func (r LoginResponse) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.AltID
}

// list accepts a bare array or an object wrapping it under one of the
// envelope keys the API uses.
type list[T any] []T

var envelopeKeys = []string{"data", "appointments", "users", "logs"}

func (l *list[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	for _, k := range envelopeKeys {
		raw, ok := env[k]
		if !ok {
			continue
		}
		var inner list[T]
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("envelope %q: %w", k, err)
		}
		*l = inner
		return nil
	}
	return fmt.Errorf("no list in response (looked for %v)", envelopeKeys)
}
