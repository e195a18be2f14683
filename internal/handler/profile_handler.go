package handler

import (
	"context"

	"medibook-console/internal/api"
	"medibook-console/internal/form"
	"medibook-console/internal/mapper"
	"medibook-console/internal/model"
)

type Profile struct {
	User           model.User
	Phone          string
	Specialization string
	ClinicName     string
	Medical        *api.MedicalInfo
}

func (h *Handler) Profile(ctx context.Context) (*Profile, error) {
	if _, err := h.current(); err != nil {
		return nil, err
	}
	dto, err := h.users.Profile(ctx)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: mapper.User(*dto), Phone: dto.Phone, Medical: dto.MedicalInfo}
	if dto.ProviderInfo != nil {
		p.Specialization = dto.ProviderInfo.Specialization
		p.ClinicName = dto.ProviderInfo.ClinicName
	}
	return p, nil
}

// SaveMedicalInfo stores d under the signed-in user's medicalInfo.
func (h *Handler) SaveMedicalInfo(ctx context.Context, d *form.Draft) (*model.Message, error) {
	u, err := h.current()
	if err != nil {
		return report(err, ""), err
	}
	payload := map[string]any{"medicalInfo": d.Values()}
	if err := h.users.Update(ctx, u.ID, payload); err != nil {
		return report(err, "Failed to save medical information."), err
	}
	return model.Success("Medical information saved successfully!"), nil
}
