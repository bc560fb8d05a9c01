package aps

import "fmt"

// APIError is a non-success response from an APS endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APS API error %d on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// TokenExchangeError is a terminal failure of the authorization-code
// exchange. The provider's status code and response body are carried so the
// user sees why the provider refused.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.Body)
}

// UpstreamError is an error message delivered inside a 200 response body
// (a bare string body, or an envelope holding only an error key).
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error: %s", e.Message)
}

// ShapeError is a successful response whose body matched none of the known
// envelope shapes. It is surfaced, never silently swallowed.
type ShapeError struct {
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unrecognized response shape: %s", e.Detail)
}
