package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/core/service"
)

// HTTPHandler maps the REST verbs onto the thing service. Success
// responses carry the items, write failures a single error message.
type HTTPHandler struct {
	things *service.ThingService
	logger *log.Logger
}

type itemsResponse struct {
	Items []domain.Thing `json:"items"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(things *service.ThingService, logger *log.Logger) *HTTPHandler {
	return &HTTPHandler{things: things, logger: logger}
}

// Register mounts the resource routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/things/", h.routeThings)
	mux.HandleFunc("/things", h.routeThings)
}

// routeThings dispatches on method and the presence of an id path segment.
func (h *HTTPHandler) routeThings(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/things"), "/"), "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.listThings(w, r)
		case http.MethodPost:
			h.createThing(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getThing(w, r, id)
	case http.MethodPut:
		h.updateThing(w, r, id)
	case http.MethodDelete:
		h.deleteThing(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) listThings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	res := h.things.List(r.Context(), service.ListOptions{
		Skip:       query.Get("skip"),
		Limit:      query.Get("limit"),
		SearchTerm: query.Get("searchTerm"),
	})
	h.writeResult(w, res, http.StatusOK)
}

func (h *HTTPHandler) getThing(w http.ResponseWriter, r *http.Request, id string) {
	res := h.things.Get(r.Context(), id)
	h.writeResult(w, res, http.StatusOK)
}

func (h *HTTPHandler) createThing(w http.ResponseWriter, r *http.Request) {
	var in domain.ThingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	res := h.things.Create(r.Context(), in)
	h.writeResult(w, res, http.StatusCreated)
}

func (h *HTTPHandler) updateThing(w http.ResponseWriter, r *http.Request, id string) {
	var in domain.ThingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	res := h.things.Update(r.Context(), id, in)
	h.writeResult(w, res, http.StatusOK)
}

func (h *HTTPHandler) deleteThing(w http.ResponseWriter, r *http.Request, id string) {
	res := h.things.Delete(r.Context(), id)
	if !res.OK() {
		h.writeResult(w, res, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "thing deleted"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeResult(w http.ResponseWriter, res service.Result, okStatus int) {
	if !res.OK() {
		h.logger.Printf("request failed: %s", res.Message)
		writeJSON(w, statusFor(res.Kind), errorResponse{Error: res.Message})
		return
	}
	writeJSON(w, okStatus, itemsResponse{Items: res.Items})
}

func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.ErrorInput:
		return http.StatusBadRequest
	case service.ErrorValidation:
		return http.StatusUnprocessableEntity
	case service.ErrorNotFound:
		return http.StatusNotFound
	case service.ErrorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
