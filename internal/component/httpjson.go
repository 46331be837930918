// internal/component/httpjson.go
//
// JSON helpers shared by every component.
//
// Context
// -------
// The admin UI expects the same envelope everywhere:
//
//   success   the resource itself, or {"message": "..."}
//   failure   {"message": "..."} with an optional "errors" list for
//             validation problems
//
// DecodeInto reads a request body over an existing value, so a PUT that
// omits a field keeps the stored one, then runs go-playground/validator
// with JSON field names in the error list.
//
// Notes
// -----
//   • Bodies are capped at 1 MiB.

package component

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/streamsite/internal/store"
)

const maxBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

/*──────────────────────────── responses ────────────────────────────────────*/

// FieldError is one entry in a 400 response's "errors" list.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type messageBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json", zap.Error(err))
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, messageBody{Message: msg})
}

// Invalid writes a 400 describing err.  Validation failures list each
// offending field; anything else is reported as a malformed body.
func Invalid(w http.ResponseWriter, msg string, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]FieldError, 0, len(ve))
		for _, fe := range ve {
			out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		WriteJSON(w, http.StatusBadRequest, messageBody{Message: msg, Errors: out})
		return
	}
	WriteJSON(w, http.StatusBadRequest, messageBody{
		Message: msg,
		Errors:  []FieldError{{Field: "body", Rule: err.Error()}},
	})
}

// StoreFailure maps a store error to 404 (ErrNotFound) or 500.  The 500
// branch logs err under op.
func StoreFailure(w http.ResponseWriter, log *zap.Logger, op string, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		Message(w, http.StatusNotFound, notFound)
		return
	}
	if log == nil {
		log = zap.L()
	}
	log.Error(op, zap.Error(err))
	Message(w, http.StatusInternalServerError, failed)
}

/*──────────────────────────── requests ─────────────────────────────────────*/

// DecodeInto decodes the request body over dst and validates the result.
func DecodeInto(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return validate.Struct(dst)
}

// IDParam parses the {id} URL parameter.  On failure it writes the 400 and
// returns false.
func IDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Message(w, http.StatusBadRequest, "Invalid ID format")
		return 0, false
	}
	return id, true
}
