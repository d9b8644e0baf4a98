package errors

import "net/http"

type HTTPError interface {
	error
	StatusCode() int
}

type apiError struct {
	msg  string
	code int
}

func (e *apiError) Error() string   { return e.msg }
func (e *apiError) StatusCode() int { return e.code }

var (
	ErrUpstreamUnavailable = &apiError{msg: "upstream rpc unavailable", code: http.StatusBadGateway}
	ErrRequestTimeout      = &apiError{"request timed out", http.StatusGatewayTimeout}
	ErrTooManyRequests     = &apiError{msg: "too many requests, please try again later", code: http.StatusTooManyRequests}
	ErrInternal            = &apiError{msg: "internal error", code: http.StatusInternalServerError}
)
