package mapper_test

import (
	"testing"
	"time"

	"github.com/goccy/go-json"

	"medibook-console/internal/api"
	"medibook-console/internal/mapper"
	"medibook-console/internal/model"
)

func dto(t *testing.T, raw string) api.AppointmentDTO {
	t.Helper()
	var d api.AppointmentDTO
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return d
}

func TestCollapsedReferences(t *testing.T) {
	a := mapper.Appointment(dto(t, `{
		"_id": "a1",
		"dateTime": "2025-07-10T09:00:00.000Z",
		"patientId": "u1",
		"providerId": "p1"
	}`))

	if a.ID != "a1" {
		t.Errorf("id: %q", a.ID)
	}
	if a.Patient == nil || a.Patient.Resolved() || a.Patient.ID != "u1" {
		t.Errorf("patient: %+v", a.Patient)
	}
	if a.Provider.Resolved() || a.Provider.ID != "p1" || a.Provider.Name != "" {
		t.Errorf("provider: %+v", a.Provider)
	}
	if a.Status != model.StatusPending {
		t.Errorf("missing status should default to pending, got %q", a.Status)
	}
	want := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	if !a.DateTime.Equal(want) {
		t.Errorf("instant: %v", a.DateTime)
	}
}

func TestExpandedReferences(t *testing.T) {
	a := mapper.Appointment(dto(t, `{
		"_id": "a2",
		"dateTime": "2025-07-10T09:00:00Z",
		"patientId": {"_id": "u1", "name": "Ada", "email": "ada@example.com"},
		"providerId": {"_id": "p1", "name": "Dr. Bello", "specialization": "Cardiology"},
		"status": "scheduled",
		"notes": "bring results"
	}`))

	if a.Patient == nil || !a.Patient.Resolved() {
		t.Fatalf("patient should be resolved: %+v", a.Patient)
	}
	if a.Patient.Name != "Ada" || a.Patient.Email != "ada@example.com" {
		t.Errorf("patient fields: %+v", a.Patient)
	}
	if !a.Provider.Resolved() || a.Provider.Name != "Dr. Bello" || a.Provider.Specialization != "Cardiology" {
		t.Errorf("provider: %+v", a.Provider)
	}
	if a.Notes != "bring results" || a.Status != model.StatusScheduled {
		t.Errorf("record: %+v", a)
	}
}

func TestProviderInfoFallback(t *testing.T) {
	a := mapper.Appointment(dto(t, `{
		"_id": "a3",
		"dateTime": "2025-07-10T09:00:00Z",
		"providerId": {"_id": "p2", "providerInfo": {"clinicName": "Lekki Clinic", "specialization": "Dermatology"}}
	}`))

	if a.Provider.Name != "Lekki Clinic" || a.Provider.Specialization != "Dermatology" {
		t.Errorf("fallback not applied: %+v", a.Provider)
	}
	if a.Patient != nil {
		t.Errorf("absent patient should stay nil, got %+v", a.Patient)
	}
}

func TestMistypedExpandedFieldsAreDropped(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantID   string
		wantName string
		wantSpec string
	}{
		{"info not an object", `{"_id":"a3","providerId":{"_id":"p1","providerInfo":"n/a"}}`, "p1", "", ""},
		{"numeric name", `{"_id":"a3","providerId":{"id":"p2","name":42,"specialization":"ENT"}}`, "p2", "", "ENT"},
		{"mistyped info field", `{"_id":"a3","providerId":{"_id":"p3","providerInfo":{"clinicName":7,"specialization":"Dermatology"}}}`, "p3", "", "Dermatology"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mapper.Appointment(dto(t, tt.raw))
			if !a.Provider.Resolved() || a.Provider.ID != tt.wantID {
				t.Fatalf("provider id lost: %+v", a.Provider)
			}
			if a.Provider.Name != tt.wantName || a.Provider.Specialization != tt.wantSpec {
				t.Errorf("provider: %+v", a.Provider)
			}
		})
	}
}

func TestMissingFieldsStayEmpty(t *testing.T) {
	a := mapper.Appointment(dto(t, `{"_id":"a4","dateTime":"2025-07-10T09:00:00Z","providerId":{"_id":"p3"}}`))
	if !a.Provider.Resolved() || a.Provider.Name != "" || a.Provider.Specialization != "" {
		t.Errorf("provider: %+v", a.Provider)
	}

	b := mapper.Appointment(dto(t, `{"_id":"a5","providerId":null}`))
	if b.Provider.Resolved() || b.Provider.ID != "" {
		t.Errorf("null provider: %+v", b.Provider)
	}
	if !b.DateTime.IsZero() {
		t.Errorf("missing instant should be zero, got %v", b.DateTime)
	}
}

func TestStatusNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want model.Status
	}{
		{"", model.StatusPending},
		{"Upcoming", model.StatusScheduled},
		{"confirmed", model.StatusScheduled},
		{"canceled", model.StatusCancelled},
		{"COMPLETED", model.StatusCompleted},
		{"no-show", model.Status("no-show")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a := mapper.Appointment(api.AppointmentDTO{ID: "x", Status: tt.in})
			if a.Status != tt.want {
				t.Errorf("got %q want %q", a.Status, tt.want)
			}
		})
	}
}

func TestLegacyDateAndTime(t *testing.T) {
	a := mapper.Appointment(api.AppointmentDTO{AltID: "7", Date: "2025-08-15", Time: "10:00"})
	want := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	if a.ID != "7" || !a.DateTime.Equal(want) {
		t.Errorf("got id=%q at %v", a.ID, a.DateTime)
	}
}

func TestInstantLayouts(t *testing.T) {
	want := time.Date(2025, 7, 10, 9, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-07-10T09:30:00Z",
		"2025-07-10T09:30:00.000Z",
		"2025-07-10T10:30:00+01:00",
		"2025-07-10T09:30",
	} {
		if got := mapper.Instant(s); !got.Equal(want) {
			t.Errorf("%s: got %v", s, got)
		}
	}
	if !mapper.Instant("not a date").IsZero() {
		t.Error("garbage should map to zero time")
	}
}

func TestAuditLog(t *testing.T) {
	var d api.AuditLogDTO
	raw := `{"_id":"l1","action":"DELETE_USER","userId":{"_id":"u0","name":"Root"},"target":"u9",
		"details":{"reason":"spam"},"createdAt":"2025-07-10T09:00:00Z"}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatal(err)
	}
	l := mapper.AuditLog(d)
	if l.Actor != "Root" || l.Details != `{"reason":"spam"}` || l.Timestamp.IsZero() {
		t.Errorf("audit log: %+v", l)
	}
}

func TestUserHasNoToken(t *testing.T) {
	u := mapper.User(api.UserDTO{ID: "u1", Email: "a@b.co", Role: "Provider"})
	if u.Role != model.RoleProvider || u.Token != "" {
		t.Errorf("user: %+v", u)
	}
}
