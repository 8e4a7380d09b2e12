// Package display is the formatting boundary. Values reach it at full
// precision and are rounded only here.
package display

import (
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

const (
	keyStatusAwaited   = "status.awaited"
	keyStatusArrived   = "status.arrived"
	keyStatusCompleted = "status.completed"
	keyStatusCancelled = "status.cancelled"
	keyRange           = "page.range"
	keyEmpty           = "page.empty"
	keyUnassigned      = "staff.unassigned"
)

var catalog = map[language.Tag]map[string]string{
	language.Spanish: {
		keyStatusAwaited:   "Esperado",
		keyStatusArrived:   "Llegada registrada",
		keyStatusCompleted: "Completado",
		keyStatusCancelled: "Cancelado",
		keyRange:           "Mostrando %d-%d de %d",
		keyEmpty:           "Sin citas",
		keyUnassigned:      "Sin asignar",
	},
	language.English: {
		keyStatusAwaited:   "Awaited",
		keyStatusArrived:   "Arrived",
		keyStatusCompleted: "Completed",
		keyStatusCancelled: "Cancelled",
		keyRange:           "Showing %d-%d of %d",
		keyEmpty:           "No appointments",
		keyUnassigned:      "Unassigned",
	},
}

func init() {
	for tag, msgs := range catalog {
		for key, msg := range msgs {
			_ = message.SetString(tag, key, msg)
		}
	}
}

var statusKeys = map[appointment.Status]string{
	appointment.StatusAwaited:   keyStatusAwaited,
	appointment.StatusArrived:   keyStatusArrived,
	appointment.StatusCompleted: keyStatusCompleted,
	appointment.StatusCancelled: keyStatusCancelled,
}

const dateTimeLayout = "02/01/2006 15:04"

type Formatter struct {
	p   *message.Printer
	loc *time.Location
}

// New returns a formatter for the given language. Dates are shown in loc.
func New(tag language.Tag, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{p: message.NewPrinter(tag), loc: loc}
}

// Percent renders a fraction in [0,1] as a percentage with one decimal.
func (f *Formatter) Percent(fraction float64) string {
	return f.p.Sprintf("%.1f%%", fraction*100)
}

func (f *Formatter) Count(n int) string {
	return f.p.Sprintf("%d", n)
}

func (f *Formatter) Status(s appointment.Status) string {
	key, ok := statusKeys[s]
	if !ok {
		return string(s)
	}
	return f.p.Sprintf(key)
}

func (f *Formatter) DateTime(t time.Time) string {
	return t.In(f.loc).Format(dateTimeLayout)
}

func (f *Formatter) Staff(name string) string {
	if name == "" {
		return f.p.Sprintf(keyUnassigned)
	}
	return name
}

// Range is the "showing a-b of n" line under a paginated list.
func (f *Formatter) Range(p appointment.Page) string {
	if p.TotalCount == 0 {
		return f.p.Sprintf(keyEmpty)
	}
	return f.p.Sprintf(keyRange, p.First(), p.Last(), p.TotalCount)
}

// RankFactors orders prediction factors by weight, heaviest first, without
// touching the prediction itself.
func RankFactors(factors []appointment.Factor) []appointment.Factor {
	out := append([]appointment.Factor(nil), factors...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}
