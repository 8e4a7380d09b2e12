package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/store"
)

var (
	clinic = time.FixedZone("COT", -5*60*60)
	now    = time.Date(2026, 3, 10, 12, 0, 0, 0, clinic)
)

type storedCita struct {
	ID          int64
	PatientID   int64
	Name        string
	ScheduledAt time.Time
	Service     string
	Status      appointment.Status
}

func (c storedCita) wire() map[string]any {
	return map[string]any{
		"id":              c.ID,
		"paciente_id":     c.PatientID,
		"paciente_nombre": c.Name,
		"fecha_hora":      c.ScheduledAt.In(clinic).Format("2006-01-02T15:04:05"),
		"servicio":        c.Service,
		"personal_salud":  nil,
		"estado":          store.WireStatus(c.Status),
		"notas":           nil,
	}
}

var patients = []map[string]any{
	{"id": int64(11), "nombre": "Ana Ruiz", "fecha_nacimiento": "1960-01-02", "sexo": "F"},
	{"id": int64(12), "nombre": "Luis Pardo", "fecha_nacimiento": "1955-05-06", "sexo": "M"},
}

// recordStore is an in-memory stand-in for the record store API.
type recordStore struct {
	mu     sync.Mutex
	citas  []storedCita
	nextID int64

	failUpdate string
	deletes    int
	updates    int
}

func newRecordStore() *recordStore {
	return &recordStore{
		nextID: 100,
		citas: []storedCita{
			{1, 11, "Ana Ruiz", time.Date(2026, 3, 10, 9, 0, 0, 0, clinic), "medico general", appointment.StatusAwaited},
			{2, 12, "Luis Pardo", time.Date(2026, 3, 10, 15, 0, 0, 0, clinic), "neurologia", appointment.StatusAwaited},
			{3, 13, "Eva Mora", time.Date(2026, 3, 11, 9, 0, 0, 0, clinic), "medico general", appointment.StatusAwaited},
			{4, 14, "Juan Gil", time.Date(2026, 3, 9, 9, 0, 0, 0, clinic), "cardiologia", appointment.StatusCompleted},
		},
	}
}

func (s *recordStore) handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.Get("/citas", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]map[string]any, 0, len(s.citas))
		for _, c := range s.citas {
			out = append(out, c.wire())
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/citas/hoy", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]map[string]any, 0)
		for _, c := range s.citas {
			if c.ScheduledAt.Day() == 10 {
				out = append(out, c.wire())
			}
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Post("/citas", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.nextID++
		at, _ := time.ParseInLocation("2006-01-02T15:04:05", body["fecha_hora"].(string), clinic)
		c := storedCita{
			ID:          s.nextID,
			PatientID:   int64(body["paciente_id"].(float64)),
			ScheduledAt: at,
			Service:     body["servicio"].(string),
			Status:      appointment.StatusAwaited,
		}
		s.citas = append(s.citas, c)
		writeJSON(w, http.StatusCreated, c.wire())
	})

	r.Put("/citas/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.updates++
		if s.failUpdate != "" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, s.failUpdate)
			return
		}
		for i, c := range s.citas {
			if c.ID != id {
				continue
			}
			if label, ok := body["estado"].(string); ok {
				st, err := store.ParseWireStatus(label)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "estado invalido"})
					return
				}
				c.Status = st
			}
			if svc, ok := body["servicio"].(string); ok {
				c.Service = svc
			}
			s.citas[i] = c
			writeJSON(w, http.StatusOK, c.wire())
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Cita no encontrada"})
	})

	r.Delete("/citas/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.deletes++
		for i, c := range s.citas {
			if c.ID == id {
				s.citas = append(s.citas[:i], s.citas[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Cita no encontrada"})
	})

	r.Get("/citas/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, c := range s.citas {
			if c.ID == id {
				writeJSON(w, http.StatusOK, c.wire())
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Cita no encontrada"})
	})

	r.Get("/pacientes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, patients)
	})

	r.Get("/pacientes/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		for _, p := range patients {
			if p["id"] == id {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Paciente no encontrado"})
	})

	r.Get("/neuroguard/estadisticas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_pacientes":      120,
			"total_acv":            15,
			"tasa_acv":             0.125,
			"incidencia_mensual":   []map[string]any{{"mes": "2026-02", "acv": 2}},
			"prevalencia_factores": map[string]float64{"hipertension": 0.4567},
			"distribucion_sexo":    []map[string]any{{"sexo": "F", "count": 70}},
			"distribucion_edad":    []map[string]any{{"rango": "60-69", "count": 30}},
		})
	})

	r.Get("/prediccion/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"paciente_id":      11,
			"probabilidad_acv": 0.2346,
			"factores": []map[string]any{
				{"factor": "edad", "peso": 0.1},
				{"factor": "hipertension", "peso": 0.3},
			},
		})
	})

	return r
}

func (s *recordStore) status(id int64) appointment.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.citas {
		if c.ID == id {
			return c.Status
		}
	}
	return ""
}

func testToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 3,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}
