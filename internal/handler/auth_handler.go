package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"medibook-console/internal/api"
	"medibook-console/internal/auth"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/form"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

var validate = validator.New()

// Login signs in through portal and returns the dashboard route. A role the
// portal does not admit gets an access-denied error and no session.
func (h *Handler) Login(ctx context.Context, portal auth.Portal, email, password string) (string, error) {
	cred := api.Credentials{Email: strings.TrimSpace(email), Password: password}

	verr := &exceptions.ValidationError{}
	verr.AddValidator("email", validate.Var(cred.Email, "required,email"))
	verr.AddValidator("password", validate.Var(cred.Password, "required"))
	if err := verr.OrNil(); err != nil {
		return "", err
	}

	resp, err := h.auth.Login(ctx, cred)
	if err != nil {
		h.log.Info("Handler.Login rejected", zap.String("portal", string(portal)), zap.Error(err))
		return "", err
	}

	role := model.Role(strings.ToLower(resp.Role))
	if err := portal.Admit(role); err != nil {
		h.log.Info("Handler.Login denied by portal",
			zap.String("portal", string(portal)),
			zap.String("role", string(role)),
		)
		return "", err
	}

	u := model.User{ID: resp.Key(), Email: resp.Email, Name: resp.Name, Role: role, Token: resp.Token}
	if err := h.session.Login(ctx, u); err != nil {
		return "", err
	}
	h.log.Info("Handler.Login succeeded", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return view.For(role).Dashboard(), nil
}

func (h *Handler) Logout(ctx context.Context) (string, error) {
	if err := h.session.Logout(ctx); err != nil {
		return "", err
	}
	return view.RouteLogin, nil
}

// Register creates a patient account from d. The draft survives a failure so
// the user can retry.
func (h *Handler) Register(ctx context.Context, d *form.Draft, confirm string) (*model.Message, error) {
	if err := d.Validate(); err != nil {
		return report(err, ""), err
	}
	if d.String("password") != confirm {
		return report(exceptions.ErrPasswordMismatch, ""), exceptions.ErrPasswordMismatch
	}

	payload := d.Values()
	payload["role"] = string(model.RolePatient)
	if err := h.auth.Register(ctx, payload); err != nil {
		return report(err, "Registration failed."), err
	}
	d.Reset()
	return model.Success("Registration successful!"), nil
}

// CreateProvider registers a provider account on behalf of an admin.
func (h *Handler) CreateProvider(ctx context.Context, d *form.Draft) (*model.Message, error) {
	if _, err := h.require(view.ActionCreateProvider, "Access denied: Not an admin."); err != nil {
		return report(err, ""), err
	}
	if err := d.Validate(); err != nil {
		return report(err, ""), err
	}

	payload := d.Values()
	payload["role"] = string(model.RoleProvider)
	if err := h.auth.Register(ctx, payload); err != nil {
		return report(err, "Failed to create provider account."), err
	}
	d.Reset()
	return model.Success("Provider account created successfully!"), nil
}
