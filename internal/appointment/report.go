package appointment

import (
	"sort"
	"time"
)

// KPIs are the dashboard counters. They are computed from resident collections,
// never from the statistics endpoint.
type KPIs struct {
	TotalPatients     int
	AppointmentsToday int
	Pending           int
}

// Bucket is one entry of a categorical distribution.
type Bucket struct {
	Key   string
	Count int
}

type MonthCount struct {
	Month  string // YYYY-MM
	Events int
}

// Statistics are aggregates precomputed by the store. Rates and shares are raw
// fractions in [0,1]; nothing here is recomputed locally.
type Statistics struct {
	TotalPatients        int
	TotalEvents          int
	EventRate            float64
	MonthlyIncidence     []MonthCount
	RiskFactorPrevalence map[string]float64
	SexDistribution      []Bucket
	AgeDistribution      []Bucket
}

type Factor struct {
	Name   string
	Weight float64
}

// Prediction is the scoring oracle's answer for one patient, kept as returned.
type Prediction struct {
	PatientID   int64
	Probability float64
	Factors     []Factor
}

// Summarize builds the dashboard counters. pending is re-filtered to awaited
// rows because the store may ignore the status filter on its list endpoint.
func Summarize(patients int, today, pending []Appointment) KPIs {
	return KPIs{
		TotalPatients:     patients,
		AppointmentsToday: len(today),
		Pending:           CountStatus(pending, StatusAwaited),
	}
}

func CountStatus(items []Appointment, s Status) int {
	n := 0
	for _, a := range items {
		if a.Status == s {
			n++
		}
	}
	return n
}

// Upcoming is the dashboard feed: future awaited appointments, ascending.
func Upcoming(items []Appointment, now time.Time, page, pageSize int) Page {
	return Project(items, Query{
		Kind:     ViewDashboardUpcoming,
		Sort:     SortAsc,
		Page:     page,
		PageSize: pageSize,
		Now:      now,
	})
}

// Distribution counts items per key, ordered by count desc then key asc.
func Distribution(items []Appointment, key func(Appointment) string) []Bucket {
	counts := make(map[string]int)
	for _, a := range items {
		counts[key(a)]++
	}

	out := make([]Bucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, Bucket{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func ByStatus(a Appointment) string  { return string(a.Status) }
func ByService(a Appointment) string { return a.Service }

func ByStaff(a Appointment) string {
	if a.AssignedStaff == "" {
		return "unassigned"
	}
	return a.AssignedStaff
}

// StatusBreakdown always reports every lifecycle status, including zero counts,
// in lifecycle order.
func StatusBreakdown(items []Appointment) []Bucket {
	out := make([]Bucket, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, Bucket{Key: string(s), Count: CountStatus(items, s)})
	}
	return out
}

// Breakdown is the local per-bucket view of a resident collection.
type Breakdown struct {
	Status  []Bucket
	Service []Bucket
	Staff   []Bucket
}

func BreakdownOf(items []Appointment) Breakdown {
	return Breakdown{
		Status:  StatusBreakdown(items),
		Service: Distribution(items, ByService),
		Staff:   Distribution(items, ByStaff),
	}
}
