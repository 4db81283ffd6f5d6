package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind buckets a failed remote call for retry and propagation decisions.
type Kind int

// Classification kinds, from "caller must wait" to "give up".
const (
	KindFatal Kind = iota
	KindRateLimited
	KindUnauthenticated
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Classify maps a remote-call error onto a Kind. It is pure and never panics;
// a nil error classifies as KindFatal since there is nothing to inspect.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Status, apiErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case isKeyInvalidMessage(msg):
		return KindUnauthenticated
	case strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "quota exceeded"):
		return KindRateLimited
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "timeout"):
		return KindTransient
	}
	return KindFatal
}

// classifyStatus maps HTTP-style status codes from the generation service.
func classifyStatus(code int, status, message string) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthenticated
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransient
	}

	switch strings.ToUpper(status) {
	case "RESOURCE_EXHAUSTED":
		return KindRateLimited
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return KindUnauthenticated
	case "UNAVAILABLE", "DEADLINE_EXCEEDED", "INTERNAL":
		return KindTransient
	}

	if isKeyInvalidMessage(strings.ToLower(message)) {
		return KindUnauthenticated
	}
	return KindFatal
}

// isKeyInvalidMessage detects key-invalidity language in error messages. The
// service does not always attach a status code to credential failures.
func isKeyInvalidMessage(msg string) bool {
	switch {
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "api key expired"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "api_key_invalid"):
		return true
	}
	return false
}
