// Package apitest is an in-memory stand-in for the booking REST API. It
// keeps users, appointments and audit logs in maps, issues real signed
// tokens, records every request, and can be told to fail specific routes.
package apitest

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medibook-console/internal/auth"
	"medibook-console/internal/middleware"
	"medibook-console/internal/model"
)

const TokenTTL = 15 * time.Minute

type Request struct {
	Method        string
	Path          string
	Body          []byte
	Authorization string
}

type address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type providerInfo struct {
	Specialization string `json:"specialization"`
	ClinicName     string `json:"clinicName"`
	LicenseNumber  string `json:"licenseNumber"`
}

type medicalInfo struct {
	DateOfBirth    string   `json:"dateOfBirth"`
	BloodType      string   `json:"bloodType"`
	Allergies      []string `json:"allergies"`
	MedicalHistory []string `json:"medicalHistory"`
}

type user struct {
	ID           string        `json:"_id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Role         model.Role    `json:"role"`
	Phone        string        `json:"phone,omitempty"`
	Address      *address      `json:"address,omitempty"`
	ProviderInfo *providerInfo `json:"providerInfo,omitempty"`
	MedicalInfo  *medicalInfo  `json:"medicalInfo,omitempty"`
	passwordHash string
}

type appointment struct {
	ID         string
	DateTime   time.Time
	PatientID  string
	ProviderID string
	Status     string
	Notes      string
}

type auditEntry struct {
	ID        string    `json:"_id"`
	Action    string    `json:"action"`
	UserID    string    `json:"userId"`
	Target    string    `json:"target,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type failure struct {
	status  int
	message string
	left    int
}

type API struct {
	mu       sync.Mutex
	secret   string
	users    map[string]*user
	byEmail  map[string]string
	appts    map[string]*appointment
	order    []string
	logs     []auditEntry
	requests []Request
	failures map[string]*failure
	limiter  *middleware.RateLimiter
	log      *zap.Logger
	router   chi.Router
}

func New(secret string, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{
		secret:   secret,
		users:    make(map[string]*user),
		byEmail:  make(map[string]string),
		appts:    make(map[string]*appointment),
		failures: make(map[string]*failure),
		log:      log,
	}
	a.router = a.routes()
	return a
}

func (a *API) Handler() http.Handler { return a.router }

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(a.record, a.inject)

	r.Group(func(r chi.Router) {
		r.Use(a.throttle)
		r.Post("/auth/login", a.login)
		r.Post("/auth/register", a.register)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Get("/appointments/my-appointments", a.myAppointments)
		r.Get("/appointments/provider/{id}", a.providerAppointments)
		r.Get("/appointments/patient/{id}", a.patientAppointments)
		r.Get("/appointments/{id}", a.getAppointment)
		r.Post("/appointments", a.createAppointment)
		r.Put("/appointments/{id}", a.updateAppointment)
		r.Delete("/appointments/{id}", a.cancelAppointment)

		r.Get("/users/profile", a.profile)
		r.Get("/users/{id}", a.getUser)
		r.Put("/users/{id}", a.updateUser)

		r.With(a.adminOnly).Get("/admin/users", a.listUsers)
		r.With(a.adminOnly).Delete("/admin/users/{id}", a.deleteUser)
		r.With(a.adminOnly).Put("/admin/users/{id}/role", a.updateRole)
		r.With(a.adminOnly).Post("/admin/audit-logs", a.auditLogs)
	})
	return r
}

// AddUser registers an account directly and returns its id. An empty id
// gets a generated one.
func (a *API) AddUser(id, email, password, name string, role model.Role) string {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	u := &user{ID: id, Email: strings.ToLower(email), Name: name, Role: role, passwordHash: hash}
	a.users[u.ID] = u
	a.byEmail[u.Email] = u.ID
	return u.ID
}

// SetProviderInfo attaches practice details to a provider account.
func (a *API) SetProviderInfo(id, specialization, clinic string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.users[id]; ok {
		u.ProviderInfo = &providerInfo{Specialization: specialization, ClinicName: clinic}
	}
}

// AddAppointment stores an appointment with a caller-chosen id.
func (a *API) AddAppointment(id, patientID, providerID string, at time.Time, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appts[id] = &appointment{ID: id, DateTime: at.UTC(), PatientID: patientID, ProviderID: providerID, Status: status}
	a.order = append(a.order, id)
}

func (a *API) Token(userID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[userID]
	if !ok {
		return ""
	}
	tok, err := auth.MakeToken(u.ID, string(u.Role), a.secret, TokenTTL)
	if err != nil {
		panic(err)
	}
	return tok
}

// Revoke rotates the signing secret so every issued token stops verifying.
func (a *API) Revoke() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.secret = uuid.New().String()
}

// Fail makes the next n requests to method and path answer status with
// message. n <= 0 fails until Heal is called.
func (a *API) Fail(method, path string, status int, message string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[method+" "+path] = &failure{status: status, message: message, left: n}
}

func (a *API) Heal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = make(map[string]*failure)
}

func (a *API) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

// Count returns how many recorded requests hit method and path.
func (a *API) Count(method, path string) int {
	n := 0
	for _, r := range a.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (a *API) ResetRequests() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = nil
}

func (a *API) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Body:          body,
			Authorization: r.Header.Get("Authorization"),
		})
		a.mu.Unlock()

		a.log.Debug("API request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
		)
		next.ServeHTTP(w, r)
	})
}

func (a *API) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		f, ok := a.failures[r.Method+" "+r.URL.Path]
		if ok && f.left > 0 {
			f.left--
			if f.left == 0 {
				delete(a.failures, r.Method+" "+r.URL.Path)
			}
		}
		a.mu.Unlock()

		if ok {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// LimitAuth throttles /auth/* per caller address. A zero rps lifts the limit.
func (a *API) LimitAuth(rps float64, burst int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rps <= 0 {
		a.limiter = nil
		return
	}
	a.limiter = middleware.NewRateLimiter(rps, burst)
}

func (a *API) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		rl := a.limiter
		a.mu.Unlock()
		if rl == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.Allow(ip) {
			a.log.Warn("apitest throttled", zap.String("ip", ip), zap.String("path", r.URL.Path))
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		a.mu.Lock()
		secret := a.secret
		a.mu.Unlock()

		claims, err := auth.ParseToken(strings.TrimPrefix(h, "Bearer "), secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		a.mu.Lock()
		u, ok := a.users[claims.UserID]
		a.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u.ID)))
	})
}

func (a *API) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if me := a.caller(r); me == nil || me.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "Access denied: admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// caller returns a copy of the authenticated user.
func (a *API) caller(r *http.Request) *user {
	id, _ := r.Context().Value(ctxKey{}).(string)
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// audit appends a log entry. a.mu must be held.
func (a *API) audit(action, actor, target, details string) {
	a.logs = append(a.logs, auditEntry{
		ID:        uuid.New().String(),
		Action:    action,
		UserID:    actor,
		Target:    target,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
