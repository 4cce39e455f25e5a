package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

type errorBody struct {
	Error    string            `json:"error"`
	Code     apperrors.Code    `json:"code"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// renderError maps domain errors to HTTP statuses. Unrecognized errors stay
// opaque to the client.
func renderError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	body := errorBody{Code: code, Error: "internal error"}
	var domain *apperrors.Error
	if errors.As(err, &domain) {
		body.Error = domain.Message
		body.Metadata = domain.Metadata
	} else {
		log.Printf("http: internal error: %v", err)
	}
	respond(w, code.HTTPStatus(), body)
}

// decodeBody parses a JSON request body. An empty body decodes to the zero
// value.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && err != io.EOF {
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err)
	}
	return nil
}
