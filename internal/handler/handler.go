// Package handler implements the screens of the console. Each screen wires
// a draft, a list controller and the role's view composer to the API.
package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"medibook-console/internal/api"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/middleware"
	"medibook-console/internal/model"
	"medibook-console/internal/session"
	"medibook-console/internal/view"
)

type Deps struct {
	Session  *session.Session
	Client   *api.Client
	Location *time.Location
	Logger   *zap.Logger
	// Timeout bounds each list refresh and mutation. Zero leaves only the
	// client timeout.
	Timeout time.Duration
}

type Handler struct {
	session *session.Session
	auth    *api.AuthService
	appts   *api.AppointmentService
	users   *api.UserService
	admin   *api.AdminService
	loc     *time.Location
	log     *zap.Logger
	timeout time.Duration
}

func New(d Deps) *Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		session: d.Session,
		auth:    api.NewAuthService(d.Client),
		appts:   api.NewAppointmentService(d.Client),
		users:   api.NewUserService(d.Client),
		admin:   api.NewAdminService(d.Client),
		loc:     d.Location,
		log:     d.Logger,
		timeout: d.Timeout,
	}
}

// NewTransport builds the outgoing middleware chain around base: credential
// throttling, bearer injection from s, and session expiry on 401.
func NewTransport(base http.RoundTripper, s *session.Session, rl *middleware.RateLimiter) http.RoundTripper {
	mws := []middleware.Middleware{}
	if rl != nil {
		mws = append(mws, middleware.RateLimit(rl))
	}
	mws = append(mws, middleware.Auth(s), middleware.Unauthorized(s))
	return middleware.Chain(base, mws...)
}

func (h *Handler) Location() *time.Location { return h.loc }

func (h *Handler) composer() view.Composer { return view.For(h.session.Role()) }

// current returns the signed-in user or ErrNotAuthenticated.
func (h *Handler) current() (model.User, error) {
	u, ok := h.session.User()
	if !ok {
		return model.User{}, exceptions.ErrNotAuthenticated
	}
	return u, nil
}

// require checks that the session may perform a. The server enforces the
// same rule; this only avoids a pointless round trip.
func (h *Handler) require(a view.Action, denied string) (model.User, error) {
	u, err := h.current()
	if err != nil {
		return u, err
	}
	if !view.For(u.Role).CanPerform(a) {
		return u, exceptions.Denied(denied)
	}
	return u, nil
}

// report turns err into the message shown to the user. Unauthorized errors
// get none; the session expiry hook already handled them.
func report(err error, fallback string) *model.Message {
	if err == nil || exceptions.IsUnauthorized(err) {
		return nil
	}
	return model.Failure(exceptions.Message(err, fallback))
}
