package apitest

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medibook-console/internal/auth"
	"medibook-console/internal/model"
)

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	a.mu.Lock()
	id, ok := a.byEmail[strings.ToLower(req.Email)]
	var u user
	if ok {
		u = *a.users[id]
	}
	a.mu.Unlock()

	if !ok || !auth.CheckPassword(u.passwordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok := a.Token(u.ID)
	a.mu.Lock()
	a.audit("LOGIN", u.ID, "", "")
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  string(u.Role),
		"token": tok,
	})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string        `json:"email"`
		Password     string        `json:"password"`
		Name         string        `json:"name"`
		Role         model.Role    `json:"role"`
		Phone        string        `json:"phone"`
		Address      *address      `json:"address"`
		ProviderInfo *providerInfo `json:"providerInfo"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = model.RolePatient
	}
	if req.Role != model.RolePatient && req.Role != model.RoleProvider {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, dup := a.byEmail[email]; dup {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	u := &user{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         req.Name,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		ProviderInfo: req.ProviderInfo,
		passwordHash: hash,
	}
	a.users[u.ID] = u
	a.byEmail[email] = u.ID
	a.audit("REGISTER", u.ID, u.ID, string(u.Role))

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully", "id": u.ID})
}

// expandedUser is the populated form of a user reference.
func expandedUser(u *user) map[string]any {
	out := map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email}
	if u.ProviderInfo != nil {
		out["providerInfo"] = u.ProviderInfo
	}
	return out
}

// render returns the wire form of ap. Populated listings embed the related
// users; the others carry bare ids. a.mu must be held.
func (a *API) render(ap *appointment, populate bool) map[string]any {
	out := map[string]any{
		"_id":      ap.ID,
		"dateTime": ap.DateTime.Format("2006-01-02T15:04:05.000Z"),
		"status":   ap.Status,
	}
	if ap.Notes != "" {
		out["notes"] = ap.Notes
	}
	out["patientId"], out["providerId"] = ap.PatientID, ap.ProviderID
	if !populate {
		return out
	}
	if u, ok := a.users[ap.PatientID]; ok {
		out["patientId"] = expandedUser(u)
	}
	if u, ok := a.users[ap.ProviderID]; ok {
		out["providerId"] = expandedUser(u)
	}
	return out
}

func (a *API) listWhere(keep func(*appointment) bool, populate bool) []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []map[string]any{}
	for _, id := range a.order {
		ap, ok := a.appts[id]
		if ok && keep(ap) {
			out = append(out, a.render(ap, populate))
		}
	}
	return out
}

func (a *API) myAppointments(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	items := a.listWhere(func(ap *appointment) bool {
		switch me.Role {
		case model.RoleAdmin:
			return true
		case model.RoleProvider:
			return ap.ProviderID == me.ID
		}
		return ap.PatientID == me.ID
	}, true)
	writeJSON(w, http.StatusOK, items)
}

func (a *API) providerAppointments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items := a.listWhere(func(ap *appointment) bool { return ap.ProviderID == id }, false)
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (a *API) patientAppointments(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")
	if me.Role == model.RolePatient && me.ID != id {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	items := a.listWhere(func(ap *appointment) bool { return ap.PatientID == id }, false)
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// visible reports whether me may see ap. Others get 404 so existence is not
// revealed.
func visible(me *user, ap *appointment) bool {
	switch me.Role {
	case model.RoleAdmin:
		return true
	case model.RoleProvider:
		return ap.ProviderID == me.ID
	}
	return ap.PatientID == me.ID
}

func (a *API) getAppointment(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	a.mu.Lock()
	defer a.mu.Unlock()
	ap, ok := a.appts[chi.URLParam(r, "id")]
	if !ok || !visible(me, ap) {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, a.render(ap, true))
}

type appointmentBody struct {
	DateTime   string `json:"dateTime"`
	ProviderID string `json:"providerId"`
	PatientID  string `json:"patientId"`
	Notes      string `json:"notes"`
}

// conflict reports another live appointment with the same provider and
// instant. a.mu must be held.
func (a *API) conflict(providerID string, at time.Time, exclude string) bool {
	for _, ap := range a.appts {
		if ap.ID != exclude && ap.ProviderID == providerID && ap.DateTime.Equal(at) && ap.Status != string(model.StatusCancelled) {
			return true
		}
	}
	return false
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	if me.Role == model.RoleProvider {
		writeError(w, http.StatusForbidden, "Providers cannot book appointments")
		return
	}
	var req appointmentBody
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	at, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil || req.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "dateTime and providerId are required")
		return
	}

	patient := me.ID
	if me.Role == model.RoleAdmin && req.PatientID != "" {
		patient = req.PatientID
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.users[req.ProviderID]; !ok || p.Role != model.RoleProvider {
		writeError(w, http.StatusBadRequest, "Provider not found")
		return
	}
	if a.conflict(req.ProviderID, at.UTC(), "") {
		writeError(w, http.StatusConflict, "time conflicts with existing appointment")
		return
	}
	ap := &appointment{
		ID:         uuid.New().String(),
		DateTime:   at.UTC(),
		PatientID:  patient,
		ProviderID: req.ProviderID,
		Status:     string(model.StatusScheduled),
		Notes:      req.Notes,
	}
	a.appts[ap.ID] = ap
	a.order = append(a.order, ap.ID)
	a.audit("CREATE_APPOINTMENT", me.ID, ap.ID, "")

	writeJSON(w, http.StatusCreated, a.render(ap, false))
}

func (a *API) updateAppointment(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	var req appointmentBody
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ap, ok := a.appts[chi.URLParam(r, "id")]
	if !ok || !visible(me, ap) {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}

	next := *ap
	if req.DateTime != "" {
		at, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid dateTime")
			return
		}
		next.DateTime = at.UTC()
	}
	if req.ProviderID != "" {
		if p, ok := a.users[req.ProviderID]; !ok || p.Role != model.RoleProvider {
			writeError(w, http.StatusBadRequest, "Provider not found")
			return
		}
		next.ProviderID = req.ProviderID
	}
	if me.Role == model.RoleAdmin && req.PatientID != "" {
		next.PatientID = req.PatientID
	}
	next.Notes = req.Notes

	// exclude self from the conflict check
	if a.conflict(next.ProviderID, next.DateTime, next.ID) {
		writeError(w, http.StatusConflict, "time conflicts with existing appointment")
		return
	}
	*ap = next
	a.audit("UPDATE_APPOINTMENT", me.ID, ap.ID, "")

	writeJSON(w, http.StatusOK, a.render(ap, false))
}

func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")

	a.mu.Lock()
	defer a.mu.Unlock()
	ap, ok := a.appts[id]
	if !ok || !visible(me, ap) {
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	delete(a.appts, id)
	a.order = slices.DeleteFunc(a.order, func(s string) bool { return s == id })
	a.audit("CANCEL_APPOINTMENT", me.ID, id, "")

	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.caller(r))
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")
	if me.Role != model.RoleAdmin && me.ID != id {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")
	if me.Role != model.RoleAdmin && me.ID != id {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	var req struct {
		Name        string       `json:"name"`
		Phone       string       `json:"phone"`
		Address     *address     `json:"address"`
		MedicalInfo *medicalInfo `json:"medicalInfo"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.Address != nil {
		u.Address = req.Address
	}
	if req.MedicalInfo != nil {
		u.MedicalInfo = req.MedicalInfo
	}
	a.audit("UPDATE_USER", me.ID, id, "")
	writeJSON(w, http.StatusOK, u)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*user, 0, len(a.users))
	for _, u := range a.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(x, y *user) int { return strings.Compare(x.Email, y.Email) })
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(a.users, id)
	delete(a.byEmail, u.Email)
	a.audit("DELETE_USER", me.ID, id, u.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request) {
	me := a.caller(r)
	id := chi.URLParam(r, "id")
	var req struct {
		Role model.Role `json:"role"`
	}
	if err := decode(r, &req); err != nil || !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	old := u.Role
	u.Role = req.Role
	a.audit("UPDATE_ROLE", me.ID, id, string(old)+" -> "+string(req.Role))
	writeJSON(w, http.StatusOK, u)
}

func (a *API) auditLogs(w http.ResponseWriter, r *http.Request) {
	var filters struct {
		Action string `json:"action"`
		UserID string `json:"userId"`
	}
	if err := decode(r, &filters); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filters")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []auditEntry{}
	for _, l := range a.logs {
		if filters.Action != "" && !strings.EqualFold(l.Action, filters.Action) {
			continue
		}
		if filters.UserID != "" && l.UserID != filters.UserID {
			continue
		}
		out = append(out, l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out})
}
