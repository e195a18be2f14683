package form

import (
	"strings"
	"time"

	"medibook-console/internal/exceptions"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

// LocalLayout is the editable date-time form of an instant, as typed into a
// datetime-local input.
const LocalLayout = "2006-01-02T15:04"

// WireLayout is the UTC timestamp format sent to the API.
const WireLayout = "2006-01-02T15:04:05.000Z"

func NewBooking() *Draft {
	return New(map[string]any{
		string(view.FieldDateTime):   "",
		string(view.FieldProviderID): "",
		string(view.FieldPatientID):  "",
		string(view.FieldNotes):      "",
	}, string(view.FieldDateTime), string(view.FieldProviderID))
}

// SeedBooking loads a for editing. The provider reference collapses back to
// its id and the instant becomes a local date-time string in loc.
func SeedBooking(d *Draft, a model.Appointment, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	values := map[string]any{
		string(view.FieldProviderID): a.Provider.ID,
		string(view.FieldNotes):      a.Notes,
	}
	if !a.DateTime.IsZero() {
		values[string(view.FieldDateTime)] = a.DateTime.In(loc).Format(LocalLayout)
	}
	if a.Patient != nil {
		values[string(view.FieldPatientID)] = a.Patient.ID
	}
	d.Seed(values, a.ID)
}

// ParseLocal reads a date-time typed by the user. Values without a zone are
// taken to be in loc.
func ParseLocal(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range []string{LocalLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BookingPayload validates d and builds the create or update body. The
// patientId is only sent when c renders that field.
func BookingPayload(d *Draft, loc *time.Location, c view.Composer) (map[string]any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	at, ok := ParseLocal(d.String(string(view.FieldDateTime)), loc)
	if !ok {
		verr := &exceptions.ValidationError{}
		verr.Add(string(view.FieldDateTime), "datetime")
		return nil, verr
	}

	payload := map[string]any{
		"dateTime":   at.UTC().Format(WireLayout),
		"providerId": strings.TrimSpace(d.String(string(view.FieldProviderID))),
		"notes":      d.String(string(view.FieldNotes)),
	}
	if c.ShowField(view.FieldPatientID) {
		if pid := strings.TrimSpace(d.String(string(view.FieldPatientID))); pid != "" {
			payload["patientId"] = pid
		}
	}
	return payload, nil
}
