package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
	"github.com/hackgods/clinic-frontdesk/internal/display"
	"github.com/hackgods/clinic-frontdesk/internal/store"
	"github.com/hackgods/clinic-frontdesk/internal/workspace"
)

var supportedLanguages = []language.Tag{language.Spanish, language.English}

// handlers builds a fresh store client and workspace per request from the
// caller's session. Only the appointment locker is shared between requests.
type handlers struct {
	cfg     RouterConfig
	matcher language.Matcher
}

func (h *handlers) client(r *http.Request) *store.Client {
	return store.NewClient(h.cfg.StoreBaseURL, sessionFrom(r.Context()),
		store.WithHTTPClient(h.cfg.HTTPClient),
		store.WithLocation(h.cfg.Location),
	)
}

func (h *handlers) workspace(r *http.Request) *workspace.Coordinator {
	sess := sessionFrom(r.Context())
	return workspace.New(h.client(r), workspace.Options{
		Location:      h.cfg.Location,
		PageSize:      h.cfg.PageSize,
		AllowOverride: h.cfg.AllowOverride,
		Now:           h.cfg.Now,
		Locker:        h.cfg.Locker,
		Recorder:      h.cfg.Recorder,
		Logger:        h.cfg.Logger.With().Str("request_id", GetRequestID(r.Context())).Logger(),
		ActorID:       sess.UserID(),
	})
}

func (h *handlers) formatter(r *http.Request) *display.Formatter {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, i, _ := h.matcher.Match(tags...)
	return display.New(supportedLanguages[i], h.cfg.Location)
}

func (h *handlers) todayView(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	v, err := ws.Open(r.Context(), appointment.ViewToday)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionResponse(v.SetPage(page), "", h.formatter(r)))
}

func (h *handlers) allView(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	dir := appointment.SortDirection(strings.ToLower(r.URL.Query().Get("sort")))
	if dir == "" {
		dir = appointment.SortAsc
	}
	if dir != appointment.SortAsc && dir != appointment.SortDesc {
		writeError(w, http.StatusBadRequest, "invalid_sort", "sort must be asc or desc")
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	v, err := ws.Open(r.Context(), appointment.ViewAll)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}

	v.SetSort(dir)
	writeJSON(w, http.StatusOK, toProjectionResponse(v.SetPage(page), v.Sort(), h.formatter(r)))
}

func (h *handlers) dashboardView(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(w, r)
	if !ok {
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	d, err := ws.OpenDashboard(r.Context())
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}

	f := h.formatter(r)
	kpis := d.KPIs()
	writeJSON(w, http.StatusOK, DashboardResponse{
		KPIs: KPIResponse{
			TotalPatients:     kpis.TotalPatients,
			AppointmentsToday: kpis.AppointmentsToday,
			Pending:           kpis.Pending,
		},
		Breakdown: toBreakdownResponse(d.Breakdown(), f),
		Upcoming:  toProjectionResponse(d.Upcoming.SetPage(page), "", f),
	})
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	created, err := ws.CreateAppointment(r.Context(), appointment.Draft{
		PatientID:     req.PatientID,
		ScheduledAt:   req.ScheduledAt,
		Service:       req.Service,
		AssignedStaff: req.AssignedStaff,
		Notes:         req.Notes,
	})
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(created, h.formatter(r)))
}

func (h *handlers) registerArrival(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(ws *workspace.Coordinator, id int64) (*appointment.Appointment, error) {
		return ws.RegisterArrival(r.Context(), id)
	})
}

func (h *handlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	h.mutate(w, r, func(ws *workspace.Coordinator, id int64) (*appointment.Appointment, error) {
		return ws.TransitionStatus(r.Context(), id, appointment.Status(req.Status))
	})
}

func (h *handlers) editAppointment(w http.ResponseWriter, r *http.Request) {
	var req EditAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	patch, err := h.toPatch(req)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}

	h.mutate(w, r, func(ws *workspace.Coordinator, id int64) (*appointment.Appointment, error) {
		return ws.EditAppointment(r.Context(), id, patch)
	})
}

func (h *handlers) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	if !strings.EqualFold(r.Header.Get("X-Confirm"), "yes") {
		handleWorkspaceError(w, ws.DeleteAppointment(r.Context(), id, false))
		return
	}

	if !h.loadResident(w, r, ws, id) {
		return
	}
	if err := ws.DeleteAppointment(r.Context(), id, true); err != nil {
		handleWorkspaceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getAppointment reads one record straight from the store. It does not
// touch the workspace.
func (h *handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	a, err := h.client(r).GetAppointment(r.Context(), id)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(a, h.formatter(r)))
}

func (h *handlers) getPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p, err := h.client(r).GetPatient(r.Context(), id)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPatientResponse(p))
}

func (h *handlers) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client(r).Statistics(r.Context())
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatisticsResponse(stats, h.formatter(r)))
}

func (h *handlers) prediction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p, err := h.client(r).Predict(r.Context(), id)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(p, h.formatter(r)))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if h.cfg.History == nil {
		writeError(w, http.StatusNotFound, "history_unavailable", "no audit store configured")
		return
	}

	limit := audit.DefaultHistory
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > audit.MaxHistory {
			writeError(w, http.StatusBadRequest, "invalid_limit", fmt.Sprintf("limit must be between 1 and %d", audit.MaxHistory))
			return
		}
		limit = n
	}

	events, err := h.cfg.History.History(r.Context(), id, limit)
	if err != nil {
		h.cfg.Logger.Error().Err(err).Int64("appointment_id", id).Msg("read appointment history")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResponse(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

// mutate loads the full list so the target is resident, then runs fn.
func (h *handlers) mutate(w http.ResponseWriter, r *http.Request, fn func(ws *workspace.Coordinator, id int64) (*appointment.Appointment, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	ws := h.workspace(r)
	defer ws.Close()

	if !h.loadResident(w, r, ws, id) {
		return
	}

	updated, err := fn(ws, id)
	if err != nil {
		handleWorkspaceError(w, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "appointment_not_found", "")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(*updated, h.formatter(r)))
}

func (h *handlers) loadResident(w http.ResponseWriter, r *http.Request, ws *workspace.Coordinator, id int64) bool {
	v, err := ws.Open(r.Context(), appointment.ViewAll)
	if err != nil {
		handleWorkspaceError(w, err)
		return false
	}
	if _, ok := v.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "appointment_not_found", "")
		return false
	}
	return true
}

func (h *handlers) toPatch(req EditAppointmentRequest) (appointment.Patch, error) {
	var p appointment.Patch
	if req.ScheduledAt != nil {
		at, err := workspace.ParseScheduledAt(*req.ScheduledAt, h.cfg.Location)
		if err != nil {
			return appointment.Patch{}, err
		}
		p.ScheduledAt = &at
	}
	if req.Status != nil {
		s := appointment.Status(*req.Status)
		p.Status = &s
	}
	p.Service = req.Service
	p.AssignedStaff = req.AssignedStaff
	p.Notes = req.Notes
	return p, nil
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
		return 0, false
	}
	return page, true
}
