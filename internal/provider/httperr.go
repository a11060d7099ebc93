package provider

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// statusError maps a non-200 response to a coded error. apiMessage is the
// provider's own error text when the body carried one.
func statusError(provider string, resp *http.Response, body []byte, apiMessage string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewProviderAuthError(provider)
	case http.StatusTooManyRequests:
		return errors.NewProviderRateLimitError(provider, resp.Header.Get("Retry-After"))
	}

	msg := apiMessage
	if msg == "" {
		msg = string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	return errors.Wrap(errors.ErrCodeProviderAPI,
		fmt.Sprintf("%s returned http %d", provider, resp.StatusCode), stderrors.New(msg))
}
