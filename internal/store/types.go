package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

var ErrUnknownStatus = errors.New("unknown status label")

// The store labels statuses in Spanish.
var statusToWire = map[appointment.Status]string{
	appointment.StatusAwaited:   "esperado",
	appointment.StatusArrived:   "llegada registrada",
	appointment.StatusCompleted: "completado",
	appointment.StatusCancelled: "cancelado",
}

var statusFromWire = map[string]appointment.Status{
	"esperado":           appointment.StatusAwaited,
	"llegada registrada": appointment.StatusArrived,
	"completado":         appointment.StatusCompleted,
	"cancelado":          appointment.StatusCancelled,
}

func WireStatus(s appointment.Status) string {
	return statusToWire[s]
}

func ParseWireStatus(label string) (appointment.Status, error) {
	s, ok := statusFromWire[label]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, label)
	}
	return s, nil
}

const wireTimeLayout = "2006-01-02T15:04:05"

// parseWireTime accepts zoned RFC 3339 and the store's naive ISO form, which
// is read in loc.
func parseWireTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q", raw)
}

func formatWireTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(wireTimeLayout)
}

type wireAppointment struct {
	ID            int64   `json:"id"`
	PatientID     int64   `json:"paciente_id"`
	PatientName   *string `json:"paciente_nombre"`
	ScheduledAt   string  `json:"fecha_hora"`
	Service       string  `json:"servicio"`
	AssignedStaff *string `json:"personal_salud"`
	Status        string  `json:"estado"`
	Notes         *string `json:"notas"`
}

// createPayload omits dump-only fields; the store rejects unknown keys.
type createPayload struct {
	PatientID     int64   `json:"paciente_id"`
	ScheduledAt   string  `json:"fecha_hora"`
	Service       string  `json:"servicio"`
	AssignedStaff *string `json:"personal_salud"`
	Status        string  `json:"estado"`
	Notes         *string `json:"notas"`
}

func (w wireAppointment) toDomain(loc *time.Location) (appointment.Appointment, error) {
	at, err := parseWireTime(w.ScheduledAt, loc)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %d: %w", w.ID, err)
	}
	status, err := ParseWireStatus(w.Status)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %d: %w", w.ID, err)
	}
	return appointment.Appointment{
		ID:            w.ID,
		PatientID:     w.PatientID,
		PatientName:   deref(w.PatientName),
		ScheduledAt:   at,
		Service:       w.Service,
		AssignedStaff: deref(w.AssignedStaff),
		Status:        status,
		Notes:         deref(w.Notes),
	}, nil
}

func newCreatePayload(a appointment.Appointment, loc *time.Location) createPayload {
	return createPayload{
		PatientID:     a.PatientID,
		ScheduledAt:   formatWireTime(a.ScheduledAt, loc),
		Service:       a.Service,
		AssignedStaff: optional(a.AssignedStaff),
		Status:        WireStatus(a.Status),
		Notes:         optional(a.Notes),
	}
}

// patchPayload carries only the fields being changed.
func patchPayload(p appointment.Patch, loc *time.Location) map[string]any {
	out := make(map[string]any)
	if p.ScheduledAt != nil {
		out["fecha_hora"] = formatWireTime(*p.ScheduledAt, loc)
	}
	if p.Service != nil {
		out["servicio"] = *p.Service
	}
	if p.AssignedStaff != nil {
		out["personal_salud"] = optional(*p.AssignedStaff)
	}
	if p.Status != nil {
		out["estado"] = WireStatus(*p.Status)
	}
	if p.Notes != nil {
		out["notas"] = optional(*p.Notes)
	}
	return out
}

type wirePatient struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"nombre"`
	DocumentType       string  `json:"tipo_documento"`
	Document           string  `json:"documento"`
	BirthDate          string  `json:"fecha_nacimiento"`
	Sex                string  `json:"sexo"`
	Phone              *string `json:"telefono"`
	Email              *string `json:"email"`
	Hypertension       bool    `json:"hipertension"`
	Diabetes           bool    `json:"diabetes"`
	Smoking            bool    `json:"tabaquismo"`
	Sedentary          bool    `json:"sedentarismo"`
	HighCholesterol    bool    `json:"colesterol_alto"`
	FamilyStrokeRecord bool    `json:"antecedentes_familiares_acv"`
	PriorStroke        bool    `json:"tuvo_acv"`
}

func (w wirePatient) toDomain(loc *time.Location) appointment.Patient {
	// birth dates are informational; a malformed one is left zero
	birth, _ := time.ParseInLocation("2006-01-02", w.BirthDate, loc)
	return appointment.Patient{
		ID:           w.ID,
		Name:         w.Name,
		DocumentType: w.DocumentType,
		Document:     w.Document,
		BirthDate:    birth,
		Sex:          w.Sex,
		Phone:        deref(w.Phone),
		Email:        deref(w.Email),
		Risk: appointment.RiskFactors{
			Hypertension:       w.Hypertension,
			Diabetes:           w.Diabetes,
			Smoking:            w.Smoking,
			Sedentary:          w.Sedentary,
			HighCholesterol:    w.HighCholesterol,
			FamilyStrokeRecord: w.FamilyStrokeRecord,
			PriorStroke:        w.PriorStroke,
		},
	}
}

// newPatientPayload is used by the seeder; it omits the store-assigned id.
func newPatientPayload(p appointment.Patient) map[string]any {
	out := map[string]any{
		"nombre":                      p.Name,
		"tipo_documento":              p.DocumentType,
		"documento":                   p.Document,
		"fecha_nacimiento":            p.BirthDate.Format("2006-01-02"),
		"sexo":                        p.Sex,
		"hipertension":                p.Risk.Hypertension,
		"diabetes":                    p.Risk.Diabetes,
		"tabaquismo":                  p.Risk.Smoking,
		"sedentarismo":                p.Risk.Sedentary,
		"colesterol_alto":             p.Risk.HighCholesterol,
		"antecedentes_familiares_acv": p.Risk.FamilyStrokeRecord,
		"tuvo_acv":                    p.Risk.PriorStroke,
	}
	if p.Phone != "" {
		out["telefono"] = p.Phone
	}
	if p.Email != "" {
		out["email"] = p.Email
	}
	return out
}

type wireStatistics struct {
	TotalPatients    int     `json:"total_pacientes"`
	TotalEvents      int     `json:"total_acv"`
	EventRate        float64 `json:"tasa_acv"`
	MonthlyIncidence []struct {
		Month  string `json:"mes"`
		Events int    `json:"acv"`
	} `json:"incidencia_mensual"`
	RiskFactorPrevalence map[string]float64 `json:"prevalencia_factores"`
	SexDistribution      []struct {
		Sex   string `json:"sexo"`
		Count int    `json:"count"`
	} `json:"distribucion_sexo"`
	AgeDistribution []struct {
		Band  string `json:"rango"`
		Count int    `json:"count"`
	} `json:"distribucion_edad"`
}

func (w wireStatistics) toDomain() appointment.Statistics {
	s := appointment.Statistics{
		TotalPatients:        w.TotalPatients,
		TotalEvents:          w.TotalEvents,
		EventRate:            w.EventRate,
		RiskFactorPrevalence: w.RiskFactorPrevalence,
	}
	for _, m := range w.MonthlyIncidence {
		s.MonthlyIncidence = append(s.MonthlyIncidence, appointment.MonthCount{Month: m.Month, Events: m.Events})
	}
	for _, b := range w.SexDistribution {
		s.SexDistribution = append(s.SexDistribution, appointment.Bucket{Key: b.Sex, Count: b.Count})
	}
	for _, b := range w.AgeDistribution {
		s.AgeDistribution = append(s.AgeDistribution, appointment.Bucket{Key: b.Band, Count: b.Count})
	}
	return s
}

type wirePrediction struct {
	PatientID   int64   `json:"paciente_id"`
	Probability float64 `json:"probabilidad_acv"`
	Factors     []struct {
		Name   string  `json:"factor"`
		Weight float64 `json:"peso"`
	} `json:"factores"`
}

func (w wirePrediction) toDomain() appointment.Prediction {
	p := appointment.Prediction{PatientID: w.PatientID, Probability: w.Probability}
	for _, f := range w.Factors {
		p.Factors = append(p.Factors, appointment.Factor{Name: f.Name, Weight: f.Weight})
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
