// Package upstream holds shared helpers for the per-provider API clients in
// its subpackages. Each client makes a single bounded outbound call and maps
// the provider's error surface onto the gateway's canonical errors.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/voicehooks/gateway/internal/domain"
)

// ClassifyTransport maps a transport-level error from an outbound call to a
// canonical upstream error. Timeouts become 504s, everything else a 502. The
// underlying error text is deliberately not forwarded: url.Error strings can
// embed full request URLs, including provider credentials in query params.
func ClassifyTransport(err error, provider string) *domain.APIError {
	if isTimeout(err) {
		return domain.ErrUpstreamTimeout(fmt.Sprintf("%s did not respond in time", provider))
	}
	return domain.ErrUpstreamUnavailable(fmt.Sprintf("%s is unreachable", provider))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && uerr.Timeout()
}

// ErrStatus maps an unexpected upstream HTTP status to a canonical error.
func ErrStatus(provider string, code int) *domain.APIError {
	return domain.ErrUpstreamUnavailable(
		fmt.Sprintf("%s returned status %d", provider, code))
}
