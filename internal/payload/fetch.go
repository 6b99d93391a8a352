package payload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoResults marks a well-formed payload that carries nothing usable
// (an empty result list where one item was expected).
var ErrNoResults = errors.New("no results")

// StatusError is returned for any non-200 provider response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.Status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Status, e.Body)
}

func IsAuthFailure(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden
}

// GetJSON issues a GET for u and decodes the schema-checked body into v.
func GetJSON(ctx context.Context, client *http.Client, u string, schema *Schema, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return Decode(resp.Body, schema, v)
}

// Outcome classifies err into a short label for metrics and span attributes.
func Outcome(err error) string {
	var se *StatusError
	var shape *ShapeError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoResults):
		return "empty"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se):
		return "http_error"
	case errors.As(err, &shape):
		return "shape_mismatch"
	default:
		return "transport_error"
	}
}
