package listsync

import (
	"context"

	"medibook-console/internal/api"
	"medibook-console/internal/mapper"
	"medibook-console/internal/model"
)

type AppointmentSource interface {
	Query(ctx context.Context, q api.AppointmentQuery) ([]api.AppointmentDTO, error)
}

type UserSource interface {
	Users(ctx context.Context) ([]api.UserDTO, error)
}

type AuditLogSource interface {
	AuditLogs(ctx context.Context, filters map[string]any) ([]api.AuditLogDTO, error)
}

// Appointments fetches the listing selected by q and maps every record.
func Appointments(src AppointmentSource, q api.AppointmentQuery) Fetcher[model.Appointment] {
	return func(ctx context.Context) ([]model.Appointment, error) {
		dtos, err := src.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return mapper.Appointments(dtos), nil
	}
}

func Users(src UserSource) Fetcher[model.User] {
	return func(ctx context.Context) ([]model.User, error) {
		dtos, err := src.Users(ctx)
		if err != nil {
			return nil, err
		}
		return mapper.Users(dtos), nil
	}
}

func AuditLogs(src AuditLogSource, filters map[string]any) Fetcher[model.AuditLog] {
	return func(ctx context.Context) ([]model.AuditLog, error) {
		dtos, err := src.AuditLogs(ctx, filters)
		if err != nil {
			return nil, err
		}
		return mapper.AuditLogs(dtos), nil
	}
}
