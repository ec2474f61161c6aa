package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// UpstreamError describes a non-2xx answer from a remote API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Status     string
	Message    string
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	if e.Status != "" {
		msg += " " + e.Status
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap maps the status code onto the matching sentinel so callers can use errors.Is.
func (e *UpstreamError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return apperrors.ErrConflict
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return apperrors.ErrServiceUnavail
	case e.StatusCode >= 400:
		return apperrors.ErrInvalidInput
	default:
		return nil
	}
}

// Retryable reports whether repeating the call later could succeed.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// upstreamErrorBody covers both the bloom-pos envelope and Google API errors:
// {"error":{"code":"NOT_FOUND","message":"..."}} and
// {"error":{"code":404,"message":"...","status":"NOT_FOUND"}}.
type upstreamErrorBody struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Status  string          `json:"status"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns it as an *UpstreamError.
func ParseResponseError(resp *http.Response, service string) error {
	defer drain(resp.Body)

	upErr := &UpstreamError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		upErr.Message = fmt.Sprintf("read body: %v", err)
		return upErr
	}

	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		upErr.Message = parsed.Error.Message
		upErr.Status = parsed.Error.Status
		if upErr.Status == "" {
			upErr.Status = strings.Trim(string(parsed.Error.Code), `"`)
		}
		return upErr
	}

	upErr.Message = strings.TrimSpace(string(body))
	return upErr
}
