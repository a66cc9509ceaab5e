package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
	"clinic-workers/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MembershipService is what the handlers need from membership.Service.
type MembershipService interface {
	Evaluate(ctx context.Context, req membership.Request) (*membership.LifecycleResult, error)
	CurrentMembership(ctx context.Context, customerID string) (*models.MembershipRecord, error)
	Now() time.Time
}

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	service MembershipService
	checks  map[string]ReadinessCheck
	logger  logger.Logger
}

func NewHandler(service MembershipService, checks map[string]ReadinessCheck, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{service: service, checks: checks, logger: log}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	respondWithJSON(w, status, map[string]interface{}{"ready": status == http.StatusOK, "checks": results})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var in membership.EvaluateInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.respondWithError(w, errors.NewInputParsingError(err))
		return
	}

	req, err := in.ToRequest()
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	res, err := h.service.Evaluate(r.Context(), req)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, membership.NewEvaluateOutput(res))
}

func (h *Handler) handleCurrentMembership(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		h.respondWithError(w, errors.NewValidationError("customer_id", "customer id is required"))
		return
	}

	rec, err := h.service.CurrentMembership(r.Context(), customerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, membership.NewCurrentOutput(customerID, rec, h.service.Now()))
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeInvalidTier, errors.ErrCodeInputParsingFailed:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicateActiveTier:
		return http.StatusConflict
	case errors.ErrCodeRemoteStore, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("membership request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	respondWithJSON(w, status, errorResponse{
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
		Field:   stdErr.Field(),
	})
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("http request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  middleware.GetReqID(r.Context()),
			})
		})
	}
}
