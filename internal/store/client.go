// Package store is the HTTP client for the authoritative record store.
// Every exchange is request/response; nothing is cached here.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/session"
)

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Session
	loc     *time.Location
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLocation sets the zone used for the store's naive timestamps.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

func NewClient(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		sess:    sess,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Location() *time.Location {
	return c.loc
}

// Appointments

func (c *Client) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/citas")
}

// ListToday returns the store's own notion of today's appointments.
func (c *Client) ListToday(ctx context.Context) ([]appointment.Appointment, error) {
	return c.listAppointments(ctx, "/citas/hoy")
}

func (c *Client) ListByStatus(ctx context.Context, s appointment.Status) ([]appointment.Appointment, error) {
	q := url.Values{"estado": {WireStatus(s)}}
	return c.listAppointments(ctx, "/citas?"+q.Encode())
}

func (c *Client) GetAppointment(ctx context.Context, id int64) (appointment.Appointment, error) {
	var w wireAppointment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/citas/%d", id), nil, &w); err != nil {
		return appointment.Appointment{}, err
	}
	return w.toDomain(c.loc)
}

// CreateAppointment sends a full payload without id and returns the stored record.
func (c *Client) CreateAppointment(ctx context.Context, a appointment.Appointment) (appointment.Appointment, error) {
	var w wireAppointment
	if err := c.do(ctx, http.MethodPost, "/citas", newCreatePayload(a, c.loc), &w); err != nil {
		return appointment.Appointment{}, err
	}
	return w.toDomain(c.loc)
}

// UpdateAppointment sends only the patched fields.
func (c *Client) UpdateAppointment(ctx context.Context, id int64, p appointment.Patch) (appointment.Appointment, error) {
	var w wireAppointment
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/citas/%d", id), patchPayload(p, c.loc), &w); err != nil {
		return appointment.Appointment{}, err
	}
	return w.toDomain(c.loc)
}

func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/citas/%d", id), nil, nil)
}

func (c *Client) listAppointments(ctx context.Context, path string) ([]appointment.Appointment, error) {
	var ws []wireAppointment
	if err := c.do(ctx, http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]appointment.Appointment, 0, len(ws))
	for _, w := range ws {
		a, err := w.toDomain(c.loc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Patients

func (c *Client) ListPatients(ctx context.Context) ([]appointment.Patient, error) {
	var ws []wirePatient
	if err := c.do(ctx, http.MethodGet, "/pacientes", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]appointment.Patient, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain(c.loc))
	}
	return out, nil
}

func (c *Client) GetPatient(ctx context.Context, id int64) (appointment.Patient, error) {
	var w wirePatient
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/pacientes/%d", id), nil, &w); err != nil {
		return appointment.Patient{}, err
	}
	return w.toDomain(c.loc), nil
}

func (c *Client) CreatePatient(ctx context.Context, p appointment.Patient) (appointment.Patient, error) {
	var w wirePatient
	if err := c.do(ctx, http.MethodPost, "/pacientes", newPatientPayload(p), &w); err != nil {
		return appointment.Patient{}, err
	}
	return w.toDomain(c.loc), nil
}

// Statistics and prediction are consumed verbatim.

func (c *Client) Statistics(ctx context.Context) (appointment.Statistics, error) {
	var w wireStatistics
	if err := c.do(ctx, http.MethodGet, "/neuroguard/estadisticas", nil, &w); err != nil {
		return appointment.Statistics{}, err
	}
	return w.toDomain(), nil
}

func (c *Client) Predict(ctx context.Context, patientID int64) (appointment.Prediction, error) {
	var w wirePrediction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/prediccion/%d", patientID), nil, &w); err != nil {
		return appointment.Prediction{}, err
	}
	return w.toDomain(), nil
}

// Ping succeeds when the store answers at all, whatever the status code.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transport("GET /", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.Body.Close()
}

// Login exchanges credentials for a store-issued token. It is the only call
// made without a session.
func Login(ctx context.Context, h *http.Client, baseURL, username, password string) (*session.Session, error) {
	if h == nil {
		h = http.DefaultClient
	}
	op := "POST /auth/login"
	body, err := json.Marshal(map[string]string{"usuario": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, status, err := send(h, req)
	if err != nil {
		return nil, transport(op, err)
	}
	if status < 200 || status > 299 {
		return nil, rejected(op, status, data)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	return session.New(out.Token)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	token, err := c.sess.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	data, status, err := send(c.http, req)
	if err != nil {
		return transport(op, err)
	}
	if status < 200 || status > 299 {
		return rejected(op, status, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

func send(h *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := h.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}
