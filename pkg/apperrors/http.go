package apperrors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"unicode"
)

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// HTTPStatus maps an error to the appropriate HTTP status code.
func HTTPStatus(err error) int {
	var sc StatusCoder
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &sc):
		return normalizeStatus(sc.StatusCode())
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsTimeout reports whether err is an upstream connectivity or timeout
// failure: dial errors, refused connections, network timeouts and expired
// deadlines.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrGatewayTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr != nil && opErr.Op == "dial"
}

// StatusName returns the canonical upper-snake name of an HTTP status, e.g.
// 404 -> NOT_FOUND.
func StatusName(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return strconv.Itoa(status)
	}

	var sb strings.Builder
	underscore := false
	for _, r := range text {
		switch {
		case r == '\'':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if underscore && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			underscore = false
			sb.WriteRune(unicode.ToUpper(r))
		default:
			underscore = true
		}
	}
	return sb.String()
}
