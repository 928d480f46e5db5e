package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"chirpd/internal/apperr"
	"chirpd/internal/logging"
	"chirpd/internal/metrics"
)

type errorBody struct {
	Error       string              `json:"error"`
	Code        string              `json:"code,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveRequestDuration("list_all", start)
	out, err := s.svc.ListAll(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListByAuthor(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveRequestDuration("list_by_author", start)
	authorID := mux.Vars(r)["id"]
	out, err := s.svc.ListByAuthor(r.Context(), authorID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveRequestDuration("get_by_id", start)
	out, err := s.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveRequestDuration("create", start)
	principal, ok := s.principal(r)
	if !ok {
		writeError(w, apperr.Unauthorized("missing or unknown bearer token"))
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("content", "malformed request body"))
		return
	}
	p, err := s.svc.Create(r.Context(), principal, in.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer metrics.ObserveRequestDuration("delete", start)
	principal, ok := s.principal(r)
	if !ok {
		writeError(w, apperr.Unauthorized("missing or unknown bearer token"))
		return
	}
	if err := s.svc.Delete(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		logging.Error("internal_error", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	body := errorBody{Error: ae.Msg, Code: ae.Kind.String()}
	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		if ae.Field != "" {
			body.FieldErrors = map[string][]string{ae.Field: {ae.Msg}}
		}
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindRateLimited:
		status = http.StatusTooManyRequests
		if ae.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ae.RetryAfter.Seconds()))))
		}
	case apperr.KindUpstreamUnavailable:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, body)
}
