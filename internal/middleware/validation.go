package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/onnwee/resep-nusantara/backend/internal/apierr"
)

// MaxRequestBodySize bounds favorites, profile and admin request bodies.
const MaxRequestBodySize = 64 * 1024

// ValidateRequestBody limits the body size of POST, PUT and PATCH requests.
func ValidateRequestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// DecodeJSON decodes a JSON request body into dst. An empty body is
// accepted when allowEmpty is set and leaves dst untouched.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) *apierr.Error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return apierr.ValidationInvalidValue("Content-Type", "Content-Type must be application/json")
		}
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierr.New(apierr.ErrValidationInvalidValue, "Request body too large", http.StatusRequestEntityTooLarge)
	}
	return apierr.ValidationInvalidJSON()
}
