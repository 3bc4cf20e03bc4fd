package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/attendance-client/internal/errors"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Method       string
	Path         string
	Status       int
	Detail       string              // DRF "detail" message
	Code         string              // DRF error code, e.g. token_not_valid
	FieldErrors  map[string][]string // Per-field validation messages
	RecordErrors []RecordError       // Per-record errors of a bulk request

	// SessionExpired is set on a 401 whose token refresh also failed.
	SessionExpired bool
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.FieldErrors) > 0 {
		msg = formatFieldErrors(e.FieldErrors)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap maps the status onto the sentinel errors in internal/errors.
func (e *APIError) Unwrap() []error {
	switch {
	case e.Status == http.StatusUnauthorized:
		errs := []error{apperrors.ErrUnauthorized}
		if e.Path == EndpointLogin {
			errs = append(errs, apperrors.ErrInvalidCredentials)
		}
		if e.SessionExpired {
			errs = append(errs, apperrors.ErrSessionExpired)
		}
		return errs
	case e.Status == http.StatusForbidden:
		return []error{apperrors.ErrForbidden}
	case e.Status == http.StatusNotFound:
		return []error{apperrors.ErrNotFound}
	case e.Status >= 500:
		return []error{apperrors.ErrServer}
	case e.Status >= 400:
		return []error{apperrors.ErrValidation}
	}
	return nil
}

// RecordError is one entry of a bulk request's "errors" list. The backend
// sends either a plain message or the serializer's field map.
type RecordError struct {
	Message string
	Fields  map[string][]string
}

func (r *RecordError) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Message)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("[apiclient RecordError] unexpected error entry: %w", err)
	}
	r.Fields = decodeFieldErrors(raw)
	return nil
}

func (r RecordError) String() string {
	if r.Message != "" {
		return r.Message
	}
	return formatFieldErrors(r.Fields)
}

// parseError builds an APIError from a response body. Bodies that aren't a
// JSON object keep only the status.
func parseError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return e
	}
	if v, ok := raw["detail"]; ok {
		_ = json.Unmarshal(v, &e.Detail)
		delete(raw, "detail")
	}
	if v, ok := raw["code"]; ok {
		_ = json.Unmarshal(v, &e.Code)
		delete(raw, "code")
	}
	if v, ok := raw["message"]; ok {
		if e.Detail == "" {
			_ = json.Unmarshal(v, &e.Detail)
		}
		delete(raw, "message")
	}
	if v, ok := raw["errors"]; ok {
		_ = json.Unmarshal(v, &e.RecordErrors)
		delete(raw, "errors")
	}
	delete(raw, "messages")
	e.FieldErrors = decodeFieldErrors(raw)
	return e
}

func decodeFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(raw))
	for name, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			fields[name] = list
			continue
		}
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			fields[name] = []string{single}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func formatFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(fields[name], " "))
	}
	return strings.Join(parts, "; ")
}

// UserMessage turns any error returned by the client into a message fit for
// display. It returns "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apperrors.Is(err, apperrors.ErrNetwork) {
		return "Could not reach server."
	}

	var userErr *apperrors.UserError
	if apperrors.As(err, &userErr) {
		return userErr.Message
	}

	var apiErr *APIError
	if !apperrors.As(err, &apiErr) {
		if apperrors.Is(err, apperrors.ErrSessionExpired) {
			return "Your session has expired. Please log in again."
		}
		return "Something went wrong. Please try again."
	}

	switch {
	case apiErr.SessionExpired:
		return "Your session has expired. Please log in again."
	case apiErr.Status == http.StatusUnauthorized && apiErr.Path == EndpointLogin:
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return "Invalid credentials or user not found."
	case apiErr.Status == http.StatusUnauthorized:
		return "You are not logged in."
	case apiErr.Status == http.StatusForbidden:
		return "You do not have permission to perform this action."
	case apiErr.Status == http.StatusNotFound:
		return "The requested record was not found."
	case apiErr.Status >= 500:
		return "The server encountered an error. Please try again later."
	}

	var parts []string
	if apiErr.Detail != "" {
		parts = append(parts, apiErr.Detail)
	}
	if len(apiErr.FieldErrors) > 0 {
		parts = append(parts, formatFieldErrors(apiErr.FieldErrors))
	}
	for _, r := range apiErr.RecordErrors {
		parts = append(parts, r.String())
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Request failed (%d).", apiErr.Status)
	}
	return strings.Join(parts, "\n")
}
