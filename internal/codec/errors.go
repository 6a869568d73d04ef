// Package codec renders canonical domain errors as the gateway's JSON error
// envelope.
package codec

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voicehooks/gateway/internal/domain"
)

// envelope is the wire format for every error response:
//
//	{"error": {"kind": "...", "message": "..."}}
type envelope struct {
	Error *domain.APIError `json:"error"`
}

// ToCanonicalError converts any error to a domain.APIError. Errors that are
// not already canonical become a generic server error; their text is not
// forwarded, since transport errors can embed upstream URLs and credentials.
func ToCanonicalError(err error) *domain.APIError {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return domain.ErrServer("internal error")
}

// WriteError writes err to w as the JSON error envelope with the error's
// HTTP status code.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := ToCanonicalError(err)

	body, _ := json.Marshal(envelope{Error: apiErr})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatusCode())
	w.Write(body)
}
