package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMissingInput       = errors.New("missing input")
	ErrServiceUnavailable = errors.New("service not configured")
	ErrUpstream           = errors.New("upstream error")
	ErrEmptyResult        = errors.New("empty result")
	ErrTransport          = errors.New("transport error")
	ErrTimeout            = errors.New("timeout")
)

// Kind names used on the wire and in logs.
const (
	KindMissingInput       = "MissingInput"
	KindServiceUnavailable = "ServiceUnavailable"
	KindUpstreamError      = "UpstreamError"
	KindEmptyResult        = "EmptyResult"
	KindTransportError     = "TransportError"
	KindTimeout            = "Timeout"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy name for err. Unclassified errors report as
// transport failures since they never reached a provider response.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, ErrUpstream):
		return KindUpstreamError
	case errors.Is(err, ErrEmptyResult):
		return KindEmptyResult
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindTransportError
	}
}

// MarkerForKind maps a wire kind back to its sentinel marker.
func MarkerForKind(kind string) error {
	switch strings.TrimSpace(kind) {
	case KindMissingInput:
		return ErrMissingInput
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindUpstreamError:
		return ErrUpstream
	case KindEmptyResult:
		return ErrEmptyResult
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrTransport
	}
}

// HTTPStatus maps a gateway error to the response status the API returns.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to hand back to API callers.
// Transport failures are reduced to a generic line; everything else keeps the
// wrapped detail so upstream messages reach the user.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Kind(err) {
	case KindTransportError:
		return "request failed: could not reach provider"
	case KindServiceUnavailable:
		return "service not configured"
	default:
		return err.Error()
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
