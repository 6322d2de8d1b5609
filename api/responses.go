package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Shaxten/nhl-app/service"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrDuplicatePrediction),
		errors.Is(err, service.ErrConcurrentSettlement),
		errors.Is(err, service.ErrDisplayNameTaken),
		errors.Is(err, service.ErrSettlementInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrWagerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidWager),
		errors.Is(err, service.ErrBettingClosed),
		errors.Is(err, service.ErrEditWindowClosed),
		errors.Is(err, service.ErrInvalidDisplayName):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":      r.URL.Path,
			"requestID": requestIDFrom(r.Context()),
			"error":     err,
		}).Error("Request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body into dst and validates it
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: validationDetails(err),
		})
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"request": err.Error()}
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Param() != "" {
			details[fieldErr.Namespace()] = fmt.Sprintf("failed %s=%s", fieldErr.Tag(), fieldErr.Param())
			continue
		}
		details[fieldErr.Namespace()] = "failed " + fieldErr.Tag()
	}
	return details
}

// pathID parses a positive int64 path parameter
func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryLimit reads ?limit=, returning 0 (the service default) when absent or malformed
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}
