package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"p9e.in/agrisurvey/pkg/survey"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError translates the domain error taxonomy to HTTP statuses:
// validation 400, authorization 403, not-found 404, anything else 500.
func respondError(w http.ResponseWriter, err error) {
	var validation *survey.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Message, Field: validation.Field})
		return
	}
	var authz *survey.AuthorizationError
	if errors.As(err, &authz) {
		writeJSON(w, http.StatusForbidden, errorBody{Error: authz.Message})
		return
	}
	var notFound *survey.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFound.Error()})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
