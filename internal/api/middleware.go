package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire version of the response envelope. Clients use
// it to detect incompatible server upgrades before parsing the payload.
const EnvelopeVersion = 1

// APIEnvelope wraps successful responses and simple errors.
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps detailed errors that carry a machine-readable code.
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope. Status codes >= 400 become error envelopes; an *APIError with a
// code becomes the detailed form so clients can branch on Code.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	isError := len(status) > 0 && status[0] >= '4'

	if !isError {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: true,
			Data:    v,
		}, nil
	}

	var apiErr *APIError
	if errors.As(toError(v), &apiErr) && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	envelope := APIEnvelope{
		Version: EnvelopeVersion,
		Success: false,
	}
	if err := toError(v); err != nil {
		envelope.Error = err.Error()
	}
	return envelope, nil
}

// toError normalizes the transformer payload to an error, or nil.
func toError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}
