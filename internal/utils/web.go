package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shoply-dev/shoply/internal/errors"
	"github.com/shoply-dev/shoply/internal/logger"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteErrorAndStatusCode renders a typed error as JSON. Errors without a
// status code are infrastructure failures and collapse into a generic 500 so
// internals don't leak to clients.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		w.WriteHeader(e.StatusCode)
		json.NewEncoder(w).Encode(errorResponse{Kind: e.Kind, Message: e.Message})
		return
	}
	logger.Log.Error("unhandled internal error", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(errorResponse{Kind: "internal", Message: "Internal server error"})
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		return errors.Validation("Body is invalid json")
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(body); err != nil {
		return errors.Validation("Required fields missing or invalid")
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		return errors.Validation("Body is invalid json")
	}
	return nil
}
