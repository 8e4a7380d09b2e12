package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

var bogota = time.FixedZone("COT", -5*60*60)

func TestPercent(t *testing.T) {
	en := New(language.English, bogota)
	assert.Equal(t, "12.3%", en.Percent(0.1234))
	assert.Equal(t, "0.0%", en.Percent(0))
	assert.Equal(t, "100.0%", en.Percent(1))

	es := New(language.Spanish, bogota)
	assert.Equal(t, "12,3%", es.Percent(0.1234))
}

func TestStatus(t *testing.T) {
	es := New(language.Spanish, bogota)
	assert.Equal(t, "Esperado", es.Status(appointment.StatusAwaited))
	assert.Equal(t, "Llegada registrada", es.Status(appointment.StatusArrived))
	assert.Equal(t, "Cancelado", es.Status(appointment.StatusCancelled))
	assert.Equal(t, "lost", es.Status(appointment.Status("lost")))

	en := New(language.English, bogota)
	assert.Equal(t, "Completed", en.Status(appointment.StatusCompleted))
}

func TestDateTime(t *testing.T) {
	f := New(language.Spanish, bogota)
	ts := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "10/03/2026 09:30", f.DateTime(ts))
}

func TestRange(t *testing.T) {
	es := New(language.Spanish, bogota)
	assert.Equal(t, "Sin citas", es.Range(appointment.Page{Page: 1, PageSize: 10, PageCount: 1}))

	rows := make([]appointment.Appointment, 5)
	p := appointment.Page{Rows: rows, Page: 3, PageSize: 10, PageCount: 3, TotalCount: 25}
	assert.Equal(t, "Mostrando 21-25 de 25", es.Range(p))

	en := New(language.English, bogota)
	assert.Equal(t, "Showing 21-25 of 25", en.Range(p))
}

func TestStaff(t *testing.T) {
	es := New(language.Spanish, bogota)
	assert.Equal(t, "Sin asignar", es.Staff(""))
	assert.Equal(t, "Dra. Ruiz", es.Staff("Dra. Ruiz"))
}

func TestRankFactors(t *testing.T) {
	in := []appointment.Factor{
		{Name: "edad", Weight: 0.1},
		{Name: "hipertension", Weight: 0.4},
		{Name: "diabetes", Weight: 0.2},
	}

	got := RankFactors(in)
	assert.Equal(t, "hipertension", got[0].Name)
	assert.Equal(t, "diabetes", got[1].Name)
	assert.Equal(t, "edad", got[2].Name)
	assert.Equal(t, "edad", in[0].Name)
}
