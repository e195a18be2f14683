package form

import "strings"

func NewRegistration() *Draft {
	return New(map[string]any{
		"name":     "",
		"email":    "",
		"password": "",
	}, "name", "email", "password")
}

// NewProvider is the admin-created provider account. Every address and
// practice field is required.
func NewProvider() *Draft {
	return New(map[string]any{
		"email":    "",
		"password": "",
		"name":     "",
		"phone":    "",
		"address": map[string]any{
			"street":     "",
			"city":       "",
			"state":      "",
			"postalCode": "",
			"country":    "",
		},
		"providerInfo": map[string]any{
			"specialization": "",
			"clinicName":     "",
			"licenseNumber":  "",
		},
	},
		"name", "email", "password", "phone",
		"address.street", "address.city", "address.state", "address.postalCode", "address.country",
		"providerInfo.specialization", "providerInfo.clinicName", "providerInfo.licenseNumber",
	)
}

func NewMedicalInfo() *Draft {
	return New(map[string]any{
		"dateOfBirth":    "",
		"bloodType":      "",
		"allergies":      []any{},
		"medicalHistory": []any{},
	})
}

// SplitList turns "a, b,,c" into [a b c].
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
