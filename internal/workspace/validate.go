package workspace

import (
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

const DefaultService = "medico general"

// ValidationError is a form problem caught before any request is sent.
// Message is meant for the operator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var formLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ValidateDraft turns the creation form into a new awaited appointment.
func ValidateDraft(d appointment.Draft, loc *time.Location) (appointment.Appointment, error) {
	if loc == nil {
		loc = time.Local
	}

	rawID := strings.TrimSpace(d.PatientID)
	if rawID == "" {
		return appointment.Appointment{}, &ValidationError{Field: "paciente_id", Message: "El ID de paciente es obligatorio"}
	}
	patientID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || patientID <= 0 {
		return appointment.Appointment{}, &ValidationError{Field: "paciente_id", Message: "El ID de paciente debe ser un número válido"}
	}

	at, err := ParseScheduledAt(d.ScheduledAt, loc)
	if err != nil {
		return appointment.Appointment{}, err
	}

	service := strings.TrimSpace(d.Service)
	if service == "" {
		service = DefaultService
	}

	return appointment.Appointment{
		PatientID:     patientID,
		ScheduledAt:   at,
		Service:       service,
		AssignedStaff: strings.TrimSpace(d.AssignedStaff),
		Status:        appointment.StatusAwaited,
		Notes:         strings.TrimSpace(d.Notes),
	}, nil
}

// ParseScheduledAt reads a form timestamp in loc. The datetime-local input
// omits seconds, so HH:MM values get ":00".
func ParseScheduledAt(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ValidationError{Field: "fecha_hora", Message: "La fecha y hora son obligatorias"}
	}
	if len(raw) == len("2006-01-02T15:04") {
		raw += ":00"
	}
	for _, layout := range formLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "fecha_hora", Message: "La fecha y hora no tienen un formato válido"}
}
