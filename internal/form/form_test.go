package form_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"medibook-console/internal/exceptions"
	"medibook-console/internal/form"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verr *exceptions.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return verr.Fields()
}

func TestNestedSet(t *testing.T) {
	d := form.NewProvider()
	if err := d.Set("address.city", "Lagos"); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("providerInfo.clinicName", "Lekki Clinic"); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("emergency.contact.name", "Bisi"); err != nil {
		t.Fatalf("intermediate objects should be created: %v", err)
	}

	v := d.Values()
	addr := v["address"].(map[string]any)
	if addr["city"] != "Lagos" || addr["street"] != "" {
		t.Errorf("address: %v", addr)
	}
	if got := d.String("providerInfo.clinicName"); got != "Lekki Clinic" {
		t.Errorf("clinicName: %q", got)
	}
	if got := d.String("emergency.contact.name"); got != "Bisi" {
		t.Errorf("deep path: %q", got)
	}

	if err := d.Set("name.first", "x"); !errors.Is(err, form.ErrNotObject) {
		t.Errorf("expected ErrNotObject, got %v", err)
	}
}

func TestValuesIsACopy(t *testing.T) {
	d := form.NewProvider()
	v := d.Values()
	v["address"].(map[string]any)["city"] = "Abuja"
	if d.String("address.city") != "" {
		t.Fatal("mutating Values leaked into the draft")
	}
}

func TestListItems(t *testing.T) {
	d := form.NewMedicalInfo()
	for _, a := range []string{"peanuts", "penicillin", "dust"} {
		if err := d.AddItem("allergies", a); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.SetItem("allergies", 2, "pollen"); err != nil {
		t.Fatal(err)
	}
	if err := d.RemoveItem("allergies", 0); err != nil {
		t.Fatal(err)
	}
	v, _ := d.Get("allergies")
	got := v.([]any)
	if len(got) != 2 || got[0] != "penicillin" || got[1] != "pollen" {
		t.Errorf("allergies: %v", got)
	}

	if err := d.RemoveItem("allergies", 5); !errors.Is(err, form.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if err := d.AddItem("bloodType", "O+"); !errors.Is(err, form.ErrNotList) {
		t.Errorf("expected ErrNotList, got %v", err)
	}
}

func TestResetRestoresTemplate(t *testing.T) {
	d := form.NewBooking()
	d.Seed(map[string]any{"providerId": "p1", "notes": "x"}, "a1")
	if d.Editing() != "a1" {
		t.Fatalf("editing marker: %q", d.Editing())
	}
	d.Reset()
	if d.Editing() != "" || d.String("providerId") != "" || d.String("notes") != "" {
		t.Errorf("reset left state behind: %v editing=%q", d.Values(), d.Editing())
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name  string
		draft func() *form.Draft
		set   map[string]string
		want  []string
	}{
		{"booking empty", form.NewBooking, nil, []string{"dateTime", "providerId"}},
		{"booking without provider", form.NewBooking,
			map[string]string{"dateTime": "2025-08-15T10:00"}, []string{"providerId"}},
		{"booking whitespace provider", form.NewBooking,
			map[string]string{"dateTime": "2025-08-15T10:00", "providerId": "   "}, []string{"providerId"}},
		{"registration bad email", form.NewRegistration,
			map[string]string{"name": "Ada", "email": "nope", "password": "secret1"}, []string{"email"}},
		{"provider missing license", form.NewProvider, map[string]string{
			"name": "Dr. B", "email": "b@clinic.ng", "password": "pw", "phone": "080",
			"address.street": "1 Marina", "address.city": "Lagos", "address.state": "LA",
			"address.postalCode": "100001", "address.country": "NG",
			"providerInfo.specialization": "GP", "providerInfo.clinicName": "Marina",
		}, []string{"providerInfo.licenseNumber"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft()
			for k, v := range tt.set {
				if err := d.Set(k, v); err != nil {
					t.Fatal(err)
				}
			}
			if got := fields(t, d.Validate()); !slices.Equal(got, tt.want) {
				t.Errorf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestValidatePasses(t *testing.T) {
	d := form.NewRegistration()
	d.Set("name", "Ada")
	d.Set("email", "a@b.com")
	d.Set("password", "secret1")
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestBookingPayload(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	d := form.NewBooking()
	d.Set("dateTime", "2025-08-15T10:00")
	d.Set("providerId", "p1")
	d.Set("patientId", "u7")

	p, err := form.BookingPayload(d, lagos, view.For(model.RolePatient))
	if err != nil {
		t.Fatal(err)
	}
	if p["dateTime"] != "2025-08-15T09:00:00.000Z" {
		t.Errorf("timestamp not normalized: %v", p["dateTime"])
	}
	if p["providerId"] != "p1" {
		t.Errorf("providerId: %v", p["providerId"])
	}
	if _, ok := p["patientId"]; ok {
		t.Error("patientId must not be sent for a patient")
	}

	p, err = form.BookingPayload(d, lagos, view.For(model.RoleAdmin))
	if err != nil {
		t.Fatal(err)
	}
	if p["patientId"] != "u7" {
		t.Errorf("admin payload lost patientId: %v", p)
	}
}

func TestBookingPayloadBadDate(t *testing.T) {
	d := form.NewBooking()
	d.Set("dateTime", "15/08/2025")
	d.Set("providerId", "p1")
	_, err := form.BookingPayload(d, time.UTC, view.For(model.RolePatient))
	if got := fields(t, err); !slices.Equal(got, []string{"dateTime"}) {
		t.Errorf("got %v", got)
	}
}

func TestSeedBookingRoundTrip(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	a := model.Appointment{
		ID:       "a9",
		DateTime: time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC),
		Provider: model.ResolvedProvider("p1", "Dr. Bello", "Cardiology"),
		Notes:    "follow-up",
	}
	d := form.NewBooking()
	form.SeedBooking(d, a, lagos)

	if d.Editing() != "a9" {
		t.Errorf("editing: %q", d.Editing())
	}
	if d.String("dateTime") != "2025-08-15T10:00" || d.String("providerId") != "p1" {
		t.Errorf("seeded values: %v", d.Values())
	}
	p, err := form.BookingPayload(d, lagos, view.For(model.RolePatient))
	if err != nil {
		t.Fatal(err)
	}
	if p["dateTime"] != "2025-08-15T09:00:00.000Z" || p["notes"] != "follow-up" {
		t.Errorf("payload: %v", p)
	}
}

func TestSplitList(t *testing.T) {
	got := form.SplitList(" peanuts, penicillin,, dust ,")
	if !slices.Equal(got, []string{"peanuts", "penicillin", "dust"}) {
		t.Errorf("got %v", got)
	}
	if got := form.SplitList(""); len(got) != 0 {
		t.Errorf("empty input: %v", got)
	}
}
