package api

import (
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
	"github.com/hackgods/clinic-frontdesk/internal/display"
)

type CreateAppointmentRequest struct {
	PatientID     string `json:"patient_id"`
	ScheduledAt   string `json:"scheduled_at"`
	Service       string `json:"service"`
	AssignedStaff string `json:"assigned_staff"`
	Notes         string `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// EditAppointmentRequest leaves absent fields unchanged.
type EditAppointmentRequest struct {
	ScheduledAt   *string `json:"scheduled_at"`
	Service       *string `json:"service"`
	AssignedStaff *string `json:"assigned_staff"`
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
}

type AppointmentResponse struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	PatientName   string    `json:"patient_name,omitempty"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	ScheduledText string    `json:"scheduled_text"`
	Service       string    `json:"service"`
	AssignedStaff string    `json:"assigned_staff"`
	Status        string    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	Notes         string    `json:"notes,omitempty"`
	NextStatuses  []string  `json:"next_statuses"`
}

type PatientResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DocumentType string `json:"document_type,omitempty"`
	Document     string `json:"document,omitempty"`
	BirthDate    string `json:"birth_date,omitempty"`
	Sex          string `json:"sex,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

type ProjectionResponse struct {
	Rows       []AppointmentResponse `json:"rows"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	PageCount  int                   `json:"page_count"`
	TotalCount int                   `json:"total_count"`
	Range      string                `json:"range"`
	Sort       string                `json:"sort,omitempty"`
}

type KPIResponse struct {
	TotalPatients     int `json:"total_patients"`
	AppointmentsToday int `json:"appointments_today"`
	Pending           int `json:"pending"`
}

type DashboardResponse struct {
	KPIs      KPIResponse        `json:"kpis"`
	Breakdown BreakdownResponse  `json:"breakdown"`
	Upcoming  ProjectionResponse `json:"upcoming"`
}

type BreakdownResponse struct {
	Status  []BucketResponse `json:"status"`
	Service []BucketResponse `json:"service"`
	Staff   []BucketResponse `json:"staff"`
}

type BucketResponse struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

type StatisticsResponse struct {
	TotalPatients        int                `json:"total_patients"`
	TotalEvents          int                `json:"total_events"`
	EventRate            float64            `json:"event_rate"`
	EventRateText        string             `json:"event_rate_text"`
	MonthlyIncidence     []BucketResponse   `json:"monthly_incidence"`
	RiskFactorPrevalence map[string]float64 `json:"risk_factor_prevalence"`
	RiskFactorText       map[string]string  `json:"risk_factor_text"`
	SexDistribution      []BucketResponse   `json:"sex_distribution"`
	AgeDistribution      []BucketResponse   `json:"age_distribution"`
}

type FactorResponse struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

type PredictionResponse struct {
	PatientID       int64            `json:"patient_id"`
	Probability     float64          `json:"probability"`
	ProbabilityText string           `json:"probability_text"`
	Factors         []FactorResponse `json:"factors"`
}

type EventResponse struct {
	Type          string         `json:"type"`
	AppointmentID int64          `json:"appointment_id"`
	ActorID       int64          `json:"actor_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toEventResponse(ev audit.Event) EventResponse {
	return EventResponse{
		Type:          ev.Type,
		AppointmentID: ev.AppointmentID,
		ActorID:       ev.ActorID,
		Payload:       ev.Payload,
		CreatedAt:     ev.CreatedAt,
	}
}

func toAppointmentResponse(a appointment.Appointment, f *display.Formatter) AppointmentResponse {
	next := appointment.Next(a.Status)
	names := make([]string, 0, len(next))
	for _, s := range next {
		names = append(names, string(s))
	}
	return AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		PatientName:   a.PatientName,
		ScheduledAt:   a.ScheduledAt,
		ScheduledText: f.DateTime(a.ScheduledAt),
		Service:       a.Service,
		AssignedStaff: f.Staff(a.AssignedStaff),
		Status:        string(a.Status),
		StatusLabel:   f.Status(a.Status),
		Notes:         a.Notes,
		NextStatuses:  names,
	}
}

func toPatientResponse(p appointment.Patient) PatientResponse {
	out := PatientResponse{
		ID:           p.ID,
		Name:         p.Name,
		DocumentType: p.DocumentType,
		Document:     p.Document,
		Sex:          p.Sex,
		Phone:        p.Phone,
		Email:        p.Email,
	}
	if !p.BirthDate.IsZero() {
		out.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	return out
}

func toProjectionResponse(p appointment.Page, sort appointment.SortDirection, f *display.Formatter) ProjectionResponse {
	rows := make([]AppointmentResponse, 0, len(p.Rows))
	for _, a := range p.Rows {
		rows = append(rows, toAppointmentResponse(a, f))
	}
	return ProjectionResponse{
		Rows:       rows,
		Page:       p.Page,
		PageSize:   p.PageSize,
		PageCount:  p.PageCount,
		TotalCount: p.TotalCount,
		Range:      f.Range(p),
		Sort:       string(sort),
	}
}

func toBreakdownResponse(b appointment.Breakdown, f *display.Formatter) BreakdownResponse {
	status := toBuckets(b.Status)
	for i := range status {
		status[i].Label = f.Status(appointment.Status(status[i].Key))
	}
	return BreakdownResponse{
		Status:  status,
		Service: toBuckets(b.Service),
		Staff:   toBuckets(b.Staff),
	}
}

func toBuckets(in []appointment.Bucket) []BucketResponse {
	out := make([]BucketResponse, 0, len(in))
	for _, b := range in {
		out = append(out, BucketResponse{Key: b.Key, Count: b.Count})
	}
	return out
}

func toStatisticsResponse(s appointment.Statistics, f *display.Formatter) StatisticsResponse {
	months := make([]BucketResponse, 0, len(s.MonthlyIncidence))
	for _, m := range s.MonthlyIncidence {
		months = append(months, BucketResponse{Key: m.Month, Count: m.Events})
	}
	text := make(map[string]string, len(s.RiskFactorPrevalence))
	for k, v := range s.RiskFactorPrevalence {
		text[k] = f.Percent(v)
	}
	return StatisticsResponse{
		TotalPatients:        s.TotalPatients,
		TotalEvents:          s.TotalEvents,
		EventRate:            s.EventRate,
		EventRateText:        f.Percent(s.EventRate),
		MonthlyIncidence:     months,
		RiskFactorPrevalence: s.RiskFactorPrevalence,
		RiskFactorText:       text,
		SexDistribution:      toBuckets(s.SexDistribution),
		AgeDistribution:      toBuckets(s.AgeDistribution),
	}
}

func toPredictionResponse(p appointment.Prediction, f *display.Formatter) PredictionResponse {
	ranked := display.RankFactors(p.Factors)
	factors := make([]FactorResponse, 0, len(ranked))
	for _, fc := range ranked {
		factors = append(factors, FactorResponse{Name: fc.Name, Weight: fc.Weight})
	}
	return PredictionResponse{
		PatientID:       p.PatientID,
		Probability:     p.Probability,
		ProbabilityText: f.Percent(p.Probability),
		Factors:         factors,
	}
}
