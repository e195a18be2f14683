package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"medibook-console/internal/api"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/form"
	"medibook-console/internal/listsync"
	"medibook-console/internal/mapper"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

// BookingScreen is the appointment list plus its booking/edit form.
type BookingScreen struct {
	h        *Handler
	composer view.Composer
	draft    *form.Draft
	list     *listsync.Controller[model.Appointment]
}

func (h *Handler) BookingScreen() (*BookingScreen, error) {
	u, err := h.require(view.ActionViewAppointments, "Access denied.")
	if err != nil {
		return nil, err
	}
	fetch := listsync.Appointments(h.appts, api.AppointmentQuery{Scope: api.ScopeMine})
	return &BookingScreen{
		h:        h,
		composer: view.For(u.Role),
		draft:    form.NewBooking(),
		list: listsync.New(fetch,
			listsync.WithTimeout(h.timeout),
			listsync.WithFailureText("Failed to load appointments."),
			listsync.WithLogger(h.log),
		),
	}, nil
}

// Mount loads the initial listing.
func (s *BookingScreen) Mount(ctx context.Context) error {
	return settle(s.list.Refresh(ctx))
}

func (s *BookingScreen) Fields() []view.Field { return s.composer.BookingFields() }

func (s *BookingScreen) Draft() *form.Draft { return s.draft }

func (s *BookingScreen) Composer() view.Composer { return s.composer }

// Find returns appointment id from the visible list, fetching it when the
// list does not have it.
func (s *BookingScreen) Find(ctx context.Context, id string) (model.Appointment, error) {
	for _, a := range s.list.Snapshot().Items {
		if a.ID == id {
			return a, nil
		}
	}
	dto, err := s.h.appts.Get(ctx, id)
	if err != nil {
		s.list.Notify(report(err, "Failed to load appointment."))
		return model.Appointment{}, err
	}
	return mapper.Appointment(*dto), nil
}

// Edit seeds the draft from appointment id.
func (s *BookingScreen) Edit(ctx context.Context, id string) error {
	if !s.composer.CanPerform(view.ActionEdit) {
		return s.deny("Access denied: you cannot edit appointments.")
	}
	a, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	form.SeedBooking(s.draft, a, s.h.loc)
	return nil
}

// NewBooking drops any edit in progress.
func (s *BookingScreen) NewBooking() { s.draft.Reset() }

// Submit sends the draft as a create, or as an update when editing. Only a
// successful write resets the draft and triggers the single refresh.
func (s *BookingScreen) Submit(ctx context.Context) error {
	if !s.composer.CanPerform(view.ActionBook) {
		return s.deny("Access denied: you cannot book appointments.")
	}
	payload, err := form.BookingPayload(s.draft, s.h.loc, s.composer)
	if err != nil {
		s.list.Notify(report(err, ""))
		return err
	}

	id := s.draft.Editing()
	okText, failText := "Appointment booked successfully!", "Failed to book appointment."
	if id != "" {
		okText, failText = "Appointment updated successfully!", "Failed to update appointment."
	}

	written := false
	err = s.list.Mutate(ctx, func(ctx context.Context) error {
		var err error
		if id == "" {
			err = s.h.appts.Create(ctx, payload)
		} else {
			err = s.h.appts.Update(ctx, id, payload)
		}
		written = err == nil
		return err
	}, okText, failText)

	if written {
		s.draft.Reset()
	}
	s.h.log.Debug("BookingScreen.Submit",
		zap.String("editing", id),
		zap.Bool("written", written),
		zap.Error(err),
	)
	return settle(err)
}

// Cancel deletes appointment id. The row stays until the follow-up refresh
// shows it gone.
func (s *BookingScreen) Cancel(ctx context.Context, id string) error {
	if !s.composer.CanPerform(view.ActionCancel) {
		return s.deny("Access denied: you cannot cancel appointments.")
	}
	err := s.list.Mutate(ctx, func(ctx context.Context) error {
		return s.h.appts.Cancel(ctx, id)
	}, "Appointment cancelled successfully.", "Failed to cancel appointment.")
	return settle(err)
}

// SetQuery switches the listing, e.g. to one provider's appointments.
func (s *BookingScreen) SetQuery(ctx context.Context, q api.AppointmentQuery) error {
	if q.Scope != api.ScopeMine && q.SubjectID == "" {
		return fmt.Errorf("%s listing: %w", q.Scope, api.ErrNoSubject)
	}
	return settle(s.list.Reload(ctx, listsync.Appointments(s.h.appts, q)))
}

func (s *BookingScreen) Snapshot() listsync.Snapshot[model.Appointment] { return s.list.Snapshot() }

// Table renders the current snapshot with the role's columns.
func (s *BookingScreen) Table() ([]string, [][]string) {
	items := s.list.Snapshot().Items
	rows := make([][]string, len(items))
	for i, a := range items {
		rows[i] = s.composer.AppointmentRow(a, s.h.loc)
	}
	return s.composer.AppointmentColumns(), rows
}

func (s *BookingScreen) DismissMessage() { s.list.DismissMessage() }

func (s *BookingScreen) Close() { s.list.Close() }

func (s *BookingScreen) deny(text string) error {
	err := exceptions.Denied(text)
	s.list.Notify(report(err, ""))
	return err
}

// settle hides ErrSuperseded: a newer refresh owns the snapshot now.
func settle(err error) error {
	if errors.Is(err, listsync.ErrSuperseded) {
		return nil
	}
	return err
}
