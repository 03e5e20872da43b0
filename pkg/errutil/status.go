package errutil

import "net/http"

// CoreStatus is the transport-agnostic error class carried by BaseError.
type CoreStatus string

const (
	StatusBadRequest         CoreStatus = "bad_request"
	StatusUnauthorized       CoreStatus = "unauthorized"
	StatusForbidden          CoreStatus = "forbidden"
	StatusNotFound           CoreStatus = "not_found"
	StatusConflict           CoreStatus = "conflict"
	StatusTimeout            CoreStatus = "timeout"
	StatusInternal           CoreStatus = "internal"
	StatusBadGateway         CoreStatus = "bad_gateway"
	StatusServiceUnavailable CoreStatus = "service_unavailable"
	StatusUnknown            CoreStatus = "unknown"
)

// HTTPStatus converts the CoreStatus to its closest HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusTimeout:
		return http.StatusGatewayTimeout
	case StatusBadGateway:
		return http.StatusBadGateway
	case StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	case StatusInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
