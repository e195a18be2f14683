package api

import (
	"context"
	"errors"
	"net/url"
)

var ErrNoSubject = errors.New("api: appointment query needs a subject id")

type Scope int

const (
	ScopeMine Scope = iota
	ScopeProvider
	ScopePatient
)

func (s Scope) String() string {
	switch s {
	case ScopeProvider:
		return "provider"
	case ScopePatient:
		return "patient"
	}
	return "mine"
}

// AppointmentQuery picks which appointment listing to fetch. SubjectID is
// the provider or patient id and is ignored for ScopeMine.
type AppointmentQuery struct {
	Scope     Scope
	SubjectID string
}

type AppointmentService struct {
	c *Client
}

func NewAppointmentService(c *Client) *AppointmentService { return &AppointmentService{c: c} }

func (s *AppointmentService) Create(ctx context.Context, payload map[string]any) error {
	return s.c.Post(ctx, "/appointments", payload, nil)
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*AppointmentDTO, error) {
	var out AppointmentDTO
	if err := s.c.Get(ctx, "/appointments/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AppointmentService) Update(ctx context.Context, id string, payload map[string]any) error {
	return s.c.Put(ctx, "/appointments/"+url.PathEscape(id), payload, nil)
}

func (s *AppointmentService) Cancel(ctx context.Context, id string) error {
	return s.c.Delete(ctx, "/appointments/"+url.PathEscape(id), nil)
}

func (s *AppointmentService) Mine(ctx context.Context) ([]AppointmentDTO, error) {
	return s.list(ctx, "/appointments/my-appointments")
}

func (s *AppointmentService) ForProvider(ctx context.Context, providerID string) ([]AppointmentDTO, error) {
	return s.list(ctx, "/appointments/provider/"+url.PathEscape(providerID))
}

func (s *AppointmentService) ForPatient(ctx context.Context, patientID string) ([]AppointmentDTO, error) {
	return s.list(ctx, "/appointments/patient/"+url.PathEscape(patientID))
}

func (s *AppointmentService) Query(ctx context.Context, q AppointmentQuery) ([]AppointmentDTO, error) {
	switch q.Scope {
	case ScopeProvider:
		if q.SubjectID == "" {
			return nil, ErrNoSubject
		}
		return s.ForProvider(ctx, q.SubjectID)
	case ScopePatient:
		if q.SubjectID == "" {
			return nil, ErrNoSubject
		}
		return s.ForPatient(ctx, q.SubjectID)
	}
	return s.Mine(ctx)
}

func (s *AppointmentService) list(ctx context.Context, path string) ([]AppointmentDTO, error) {
	var out list[AppointmentDTO]
	if err := s.c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
