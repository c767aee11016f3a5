package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"kanalyab/internal/catalog"
	"kanalyab/internal/moderation"
	"kanalyab/internal/youtube"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		app.Logger.Error().Err(err).Msg("encoding JSON response")
	}
}

func (app *Application) writeOK(w http.ResponseWriter, status int, message string, data any) {
	app.writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func (app *Application) writeError(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, envelope{Success: false, Message: message})
}

// readJSON decodes a single JSON object from the request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// serviceError writes the response for an error returned by a service. Known
// errors map to client statuses; anything else is logged and reported as 500.
func (app *Application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		app.Logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	app.writeError(w, status, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, moderation.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, moderation.ErrCategoryNotFound):
		return http.StatusBadRequest, "category does not exist"

	case errors.Is(err, moderation.ErrSubmissionNotFound),
		errors.Is(err, catalog.ErrChannelNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, moderation.ErrAlreadySubmitted),
		errors.Is(err, moderation.ErrAlreadyRegistered),
		errors.Is(err, moderation.ErrNotPending),
		errors.Is(err, catalog.ErrCategoryInUse):
		return http.StatusConflict, err.Error()

	case errors.Is(err, youtube.ErrUnresolvable):
		return http.StatusUnprocessableEntity, "could not resolve channel"
	case errors.Is(err, youtube.ErrChannelNotFound):
		return http.StatusUnprocessableEntity, "channel not found on YouTube"
	case errors.Is(err, youtube.ErrFetchFailed):
		return http.StatusBadGateway, "YouTube request failed"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
