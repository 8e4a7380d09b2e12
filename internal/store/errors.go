package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrSessionInvalid = errors.New("session is no longer valid")

type Kind string

const (
	// KindTransport: no response was received.
	KindTransport Kind = "transport"
	// KindRejected: the store answered with a non-2xx status.
	KindRejected Kind = "rejected"
)

// Error is what every failed store exchange turns into. Message is the
// user-facing text: the store's own error field when it sent one, a generic
// fallback otherwise.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the store answered 404.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindRejected && se.StatusCode == http.StatusNotFound
}

// UserMessage extracts the text to show in an inline alert.
func UserMessage(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.Is(err, ErrSessionInvalid) {
		return "La sesión ha expirado, inicie sesión de nuevo"
	}
	return err.Error()
}

type errorBody struct {
	Error string `json:"error"`
}

func rejected(op string, status int, body []byte) *Error {
	msg := fmt.Sprintf("Error %d", status)

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}

	return &Error{Kind: KindRejected, Op: op, StatusCode: status, Message: msg}
}

func transport(op string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Op:      op,
		Message: "No se pudo contactar el servidor",
		Err:     err,
	}
}
