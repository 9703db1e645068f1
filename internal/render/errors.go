package render

import (
	"fmt"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
)

// ServiceError is a render failure after retries were exhausted or a
// permanent rejection. StatusCode is 0 for network errors.
type ServiceError struct {
	StatusCode int
	Permanent  bool
	Attempts   int
	Err        error
}

func (e *ServiceError) Error() string {
	msg := StatusMessage(e.StatusCode)
	if e.StatusCode == 0 && e.Err != nil {
		msg = "network error: " + e.Err.Error()
	}
	if e.Attempts > 1 {
		return fmt.Sprintf("plantuml server: %s (after %d attempts)", msg, e.Attempts)
	}
	return "plantuml server: " + msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, c4.ErrExternalService) match.
func (e *ServiceError) Is(target error) bool { return target == c4.ErrExternalService }

// Network reports whether the failure never reached an HTTP response.
func (e *ServiceError) Network() bool { return e.StatusCode == 0 }

// StatusMessage explains a render server status code.
func StatusMessage(code int) string {
	switch {
	case code == 0:
		return "network error"
	case code == 400:
		return "HTTP 400: invalid PlantUML syntax"
	case code == 401 || code == 403:
		return fmt.Sprintf("HTTP %d: access denied", code)
	case code == 429:
		return "HTTP 429: rate limited"
	case code >= 500:
		return fmt.Sprintf("HTTP %d: server error", code)
	default:
		return fmt.Sprintf("HTTP %d", code)
	}
}
