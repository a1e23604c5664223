package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/recomendo/recomendo/domain"
)

// Error is a non-2xx response from the backend. Validation is filled when
// the body carries the structured password-policy shape.
type Error struct {
	Status     int
	Detail     string
	Validation *domain.PasswordValidationError
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// readError drains the response body looking for the backend's error
// shapes: {"error": "..."} or a bare PasswordValidationError object.
func readError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(buf) == 0 {
		return apiErr
	}

	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
		domain.PasswordValidationError
	}
	if err := json.Unmarshal(buf, &body); err != nil {
		return apiErr
	}

	switch {
	case body.Error != "":
		apiErr.Detail = body.Error
	case body.Detail != "":
		apiErr.Detail = body.Detail
	}

	v := body.PasswordValidationError
	if v.Length || v.HasUpper || v.HasLower || v.HasNumber || v.HasSpecial {
		apiErr.Validation = &v
	}

	return apiErr
}

// IsConflict reports a 409, e.g. a duplicate recommendation.
func IsConflict(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// IsAuthRejected reports a 401 or 403, meaning the credential is invalid.
func IsAuthRejected(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// IsNotFound reports a 404, rendered as an absent entity rather than a failure.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Detail extracts a server-supplied message when one exists, falling back
// to the plain error text.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
