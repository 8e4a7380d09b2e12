package appointment

import (
	"time"
)

type Status string

const (
	StatusAwaited   Status = "awaited"
	StatusArrived   Status = "arrived"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every lifecycle status in lifecycle order.
var Statuses = []Status{StatusAwaited, StatusArrived, StatusCompleted, StatusCancelled}

func (s Status) IsValid() bool {
	switch s {
	case StatusAwaited, StatusArrived, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is the locally resident copy of a record owned by the store.
// ID zero means the record has not been persisted yet.
type Appointment struct {
	ID            int64
	PatientID     int64
	PatientName   string
	ScheduledAt   time.Time
	Service       string
	AssignedStaff string
	Status        Status
	Notes         string
}

func (a Appointment) Persisted() bool {
	return a.ID != 0
}

// Draft is the creation form payload before the store assigns an id.
// Fields hold raw form input; workspace.ValidateDraft turns it into an Appointment.
type Draft struct {
	PatientID     string
	ScheduledAt   string
	Service       string
	AssignedStaff string
	Notes         string
}

// Patch is a partial edit. Nil fields are left unchanged.
type Patch struct {
	ScheduledAt   *time.Time
	Service       *string
	AssignedStaff *string
	Status        *Status
	Notes         *string
}

func (p Patch) Empty() bool {
	return p.ScheduledAt == nil && p.Service == nil && p.AssignedStaff == nil && p.Status == nil && p.Notes == nil
}

// Apply returns a copy of a with the patch applied.
func (p Patch) Apply(a Appointment) Appointment {
	if p.ScheduledAt != nil {
		a.ScheduledAt = *p.ScheduledAt
	}
	if p.Service != nil {
		a.Service = *p.Service
	}
	if p.AssignedStaff != nil {
		a.AssignedStaff = *p.AssignedStaff
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	return a
}

// RiskFactors are the boolean flags the store keeps per patient.
type RiskFactors struct {
	Hypertension       bool
	Diabetes           bool
	Smoking            bool
	Sedentary          bool
	HighCholesterol    bool
	FamilyStrokeRecord bool
	PriorStroke        bool
}

// Patient is consumed read-only. Appointments reference it by ID.
type Patient struct {
	ID           int64
	Name         string
	DocumentType string
	Document     string
	BirthDate    time.Time
	Sex          string
	Phone        string
	Email        string
	Risk         RiskFactors
}
