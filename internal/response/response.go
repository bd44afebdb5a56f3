// Package response writes JSON bodies and the shared error envelope.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is the body of every failure and of status-only successes.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JSON writes v with the given status code. A value that cannot be encoded
// becomes a 500 envelope; nothing is written before encoding succeeds.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Status: StatusError, Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// OK writes {"status":"ok"}.
func OK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, Envelope{Status: StatusOK})
}

// Error writes {"status":"error","message":msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Status: StatusError, Message: msg})
}

// ErrorCode is Error with a machine readable code.
func ErrorCode(w http.ResponseWriter, status int, msg, code string) {
	JSON(w, status, Envelope{Status: StatusError, Message: msg, Code: code})
}
