package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/loader"
	"github.com/napolitain/blueprint-solver/internal/models"
	"github.com/napolitain/blueprint-solver/internal/report"
	"github.com/napolitain/blueprint-solver/internal/scenario"
)

type contextKey string

const contextKeyRequestID contextKey = "requestID"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// server answers solve requests against a preloaded blueprint set.
type server struct {
	blueprints []*models.Blueprint
	runner     *scenario.Runner
	timeout    time.Duration
}

// solveRequest selects one blueprint: by id from the loaded set, as a line
// of text, or as a structured record.
type solveRequest struct {
	ID        *int           `json:"id,omitempty"`
	Blueprint string         `json:"blueprint,omitempty"`
	Table     *loader.Record `json:"table,omitempty"`
	Horizon   *int           `json:"horizon,omitempty"`
}

// qualityRequest aggregates over the loaded set, or over the given text.
type qualityRequest struct {
	Blueprints string `json:"blueprints,omitempty"`
	Horizon    *int   `json:"horizon,omitempty"`
}

type errorResponse struct {
	Code      cerrors.ErrorCode `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"requestId,omitempty"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/solve", s.withMiddleware(s.handleSolve))
	mux.HandleFunc("POST /v1/quality", s.withMiddleware(s.handleQuality))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return s.requestIDMiddleware(s.loggingMiddleware(next))
}

// requestIDMiddleware extracts or generates request IDs
func (s *server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (s *server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request",
			"requestID", r.Context().Value(contextKeyRequestID),
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "blueprints": len(s.blueprints)})
}

func (s *server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bp, err := s.pick(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	outcomes, err := s.runner.Run(ctx, []*models.Blueprint{bp}, horizonOr(req.Horizon, scenario.QualityHorizon))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomes[0])
}

func (s *server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req qualityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	bps := s.blueprints
	if req.Blueprints != "" {
		parsed, err := loader.ParseText(strings.NewReader(req.Blueprints))
		if err != nil {
			writeError(w, r, err)
			return
		}
		bps = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	horizon := horizonOr(req.Horizon, scenario.QualityHorizon)
	total, outcomes, err := s.runner.QualitySum(ctx, bps, horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summary{
		Title:    "Quality levels",
		Horizon:  horizon,
		Outcomes: outcomes,
		Label:    "quality level sum",
		Total:    total,
	})
}

func (s *server) pick(req solveRequest) (*models.Blueprint, error) {
	switch {
	case req.Table != nil:
		return req.Table.Blueprint()
	case req.Blueprint != "":
		bps, err := loader.ParseText(strings.NewReader(req.Blueprint))
		if err != nil {
			return nil, err
		}
		if len(bps) != 1 {
			return nil, cerrors.New(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("expected exactly one blueprint, got %d", len(bps)))
		}
		return bps[0], nil
	case req.ID != nil:
		for _, bp := range s.blueprints {
			if bp.ID == *req.ID {
				return bp, nil
			}
		}
		return nil, cerrors.NewWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("blueprint %d not loaded", *req.ID), map[string]any{"blueprint": *req.ID})
	default:
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, "one of id, blueprint or table is required")
	}
}

func horizonOr(h *int, fallback int) int {
	if h == nil {
		return fallback
	}
	return *h
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "invalid request body", err)
	}
	return nil
}

func statusFor(code cerrors.ErrorCode) int {
	switch code {
	case cerrors.ErrCodeInvalidRequest, cerrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case cerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case cerrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := cerrors.CodeOf(err)
	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if code == cerrors.ErrCodeInternal {
		slog.Error("request failed", "requestID", requestID, "error", err)
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Message: err.Error(), RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
