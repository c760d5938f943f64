package infrastructure

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON encodes payload with the given status code.
func WriteJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode", http.StatusInternalServerError)
	}
}

// WriteOptional writes v, or a JSON null when err is ErrNotFound. Point
// lookups use it so that a missing or hidden record reads as null.
func WriteOptional(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if errors.Is(err, ErrNotFound) {
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

// WriteError maps err onto an HTTP status and a JSON error body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := HTTPStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = ErrInternalServer.Error()
	}
	WriteJSON(w, code, errorResponse{Error: msg})
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GRPCError converts a domain error into a gRPC status error.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch HTTPStatus(err) {
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusConflict:
		code = codes.AlreadyExists
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	default:
		return status.Error(codes.Internal, ErrInternalServer.Error())
	}
	return status.Error(code, err.Error())
}
