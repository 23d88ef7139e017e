package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/validate"
)

// PathID reads a positive integer path variable.
func PathID(r *http.Request, key string) (int64, error) {
	value := mux.Vars(r)[key]
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", errors.ErrInvalidPathValue, key, value)
	}
	return id, nil
}

// DecodeBody decodes the json body of r into a T and validates it.
func DecodeBody[T any](r *http.Request) (T, error) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, fmt.Errorf("failed decoding request body with error=%w", err)
	}
	if err := validate.New().StructCtx(r.Context(), body); err != nil {
		return body, fmt.Errorf("failed validating request body with error=%w", err)
	}
	return body, nil
}
