package appointment

import (
	"sort"
	"time"
)

type ViewKind string

const (
	ViewToday             ViewKind = "today"
	ViewAll               ViewKind = "all"
	ViewDashboardUpcoming ViewKind = "dashboard_upcoming"
)

func (k ViewKind) IsValid() bool {
	switch k {
	case ViewToday, ViewAll, ViewDashboardUpcoming:
		return true
	}
	return false
}

// SortToggle reports whether the view lets the user flip the sort direction.
// today and dashboard_upcoming are always ascending.
func (k ViewKind) SortToggle() bool {
	return k == ViewAll
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

const DefaultPageSize = 10

// Query holds everything a projection depends on besides the collection.
// Now and Location pin the evaluation instant and the calendar used for "today".
type Query struct {
	Kind     ViewKind
	Sort     SortDirection
	Page     int
	PageSize int
	Now      time.Time
	Location *time.Location
}

type Page struct {
	Rows       []Appointment
	Page       int
	PageSize   int
	PageCount  int
	TotalCount int
}

// First is the 1-based position of the first row on the page, 0 when empty.
func (p Page) First() int {
	if p.TotalCount == 0 {
		return 0
	}
	return (p.Page-1)*p.PageSize + 1
}

// Last is the 1-based position of the last row on the page, 0 when empty.
func (p Page) Last() int {
	if p.TotalCount == 0 {
		return 0
	}
	return p.First() + len(p.Rows) - 1
}

func (p Page) HasPrev() bool { return p.Page > 1 }
func (p Page) HasNext() bool { return p.Page < p.PageCount }

// Project filters, sorts and paginates items for the given view.
// It never modifies items.
func Project(items []Appointment, q Query) Page {
	rows := Filter(items, q)
	Sort(rows, effectiveSort(q))

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(rows)
	pageCount := (total + size - 1) / size
	if pageCount < 1 {
		pageCount = 1
	}

	page := clampPage(q.Page, pageCount)
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Rows:       rows[start:end],
		Page:       page,
		PageSize:   size,
		PageCount:  pageCount,
		TotalCount: total,
	}
}

// Filter returns a fresh slice with the members of the view.
func Filter(items []Appointment, q Query) []Appointment {
	out := make([]Appointment, 0, len(items))
	for _, a := range items {
		if Member(a, q) {
			out = append(out, a)
		}
	}
	return out
}

// Member reports whether a belongs to the view described by q.
func Member(a Appointment, q Query) bool {
	switch q.Kind {
	case ViewToday:
		return SameDay(a.ScheduledAt, q.Now, location(q))
	case ViewDashboardUpcoming:
		return a.ScheduledAt.After(q.Now) && a.Status == StatusAwaited
	default:
		return true
	}
}

// Sort orders rows by ScheduledAt, ties broken by ID, so that descending is
// the exact reverse of ascending.
func Sort(rows []Appointment, dir SortDirection) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if dir == SortDesc {
			a, b = b, a
		}
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ScheduledAt.Before(b.ScheduledAt)
		}
		return a.ID < b.ID
	})
}

// SameDay compares calendar days of t and ref in loc.
func SameDay(t, ref time.Time, loc *time.Location) bool {
	ty, tm, td := t.In(loc).Date()
	ry, rm, rd := ref.In(loc).Date()
	return ty == ry && tm == rm && td == rd
}

func effectiveSort(q Query) SortDirection {
	if q.Kind.SortToggle() && q.Sort == SortDesc {
		return SortDesc
	}
	return SortAsc
}

func clampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

func location(q Query) *time.Location {
	if q.Location == nil {
		return time.Local
	}
	return q.Location
}
