package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware" // For RequestID
)

// Envelope is the uniform response wrapper used by every endpoint.
// StatusCode mirrors the HTTP status of the response.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// WriteEnvelope writes the standard {statusCode, data, message}
// envelope with the matching HTTP status code.
func WriteEnvelope(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	writeJSON(w, r, status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

// ErrorResponse writes an error envelope with nil data.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteEnvelope(w, r, status, nil, message)
}

// ServiceErrorResponse maps a service error onto the envelope. The
// message is the outermost wrap of the error chain for client errors;
// unknown failures collapse to a generic 500 so store internals never
// leak to the caller.
func ServiceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		ErrorResponse(w, r, status, "Internal server error")
		return
	}
	ErrorResponse(w, r, status, clientMessage(err))
}

// clientMessage strips the wrapped sentinel suffix from an error so
// the envelope carries only the human-readable part.
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrBadRequest, ErrNotFound, ErrConflict, ErrUnauthenticated, ErrForbidden} {
		if suffix := ": " + sentinel.Error(); strings.HasSuffix(msg, suffix) {
			return strings.TrimSuffix(msg, suffix)
		}
	}
	return msg
}

// WriteJSON writes payload without the response envelope. The health
// and banner routes use it to keep their legacy shapes.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	writeJSON(w, r, status, payload)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	js, err := json.Marshal(payload)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		reqID := middleware.GetReqID(r.Context())
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", reqID),
		)
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely. Unknown
// fields are rejected so partial updates stay on the allow-list.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			fieldName = strings.Trim(fieldName, `"`)
			return fmt.Errorf("body contains unknown key %q", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	// Check for trailing data after the first JSON object
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}
