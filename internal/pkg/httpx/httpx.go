package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// HTTPStatusCoder lets typed domain errors carry their own HTTP mapping so
// the route layer never needs a type switch.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusFor maps an error to an HTTP status, defaulting to 500.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return http.StatusInternalServerError
}

// IsRetryableError reports whether a transport error is worth another
// attempt: timeouts and cancelled deadlines, not application rejections.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// JitterSleep spreads a backoff interval ±20% so retrying callers do not
// reconnect in lockstep.
func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}
