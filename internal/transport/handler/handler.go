package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/seolyze/imageaudit/internal/config"
	"github.com/seolyze/imageaudit/internal/entities"
	"github.com/seolyze/imageaudit/internal/jobstore"
)

// Auditor produces a report for one image source.
type Auditor interface {
	AuditURL(ctx context.Context, pageURL string) *entities.AuditReport
	AuditDir(ctx context.Context, root string) *entities.AuditReport
}

// Scheduler accepts conversion work and returns a pollable job id.
type Scheduler interface {
	Submit(images []entities.ImageRecord, opts entities.ConversionOptions) string
}

type Handler struct {
	auditor   Auditor
	scheduler Scheduler
	jobs      jobstore.Store
	cfg       *config.Config
	validator *validator.Validate
}

func New(auditor Auditor, scheduler Scheduler, jobs jobstore.Store, cfg *config.Config) *Handler {
	return &Handler{
		auditor:   auditor,
		scheduler: scheduler,
		jobs:      jobs,
		cfg:       cfg,
		validator: validator.New(),
	}
}

// RunAudit handles POST /api/audits.
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxRequestBodyMB<<20)

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationErrorsToMap(err))
		return
	}

	if (req.URL == "") == (req.Path == "") {
		writeJSONError(w, `exactly one of "url" or "path" is required`, http.StatusBadRequest)
		return
	}

	var report *entities.AuditReport
	if req.URL != "" {
		report = h.auditor.AuditURL(r.Context(), req.URL)
	} else {
		report = h.auditor.AuditDir(r.Context(), req.Path)
	}

	writeJSON(w, http.StatusOK, report)
}

// StartConversion handles POST /api/conversions.
func (h *Handler) StartConversion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxRequestBodyMB<<20)

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationErrorsToMap(err))
		return
	}

	var opts entities.ConversionOptions
	if req.Options != nil {
		opts.Quality = req.Options.Quality
		opts.MaxWidthPx = req.Options.MaxWidthPx
	}

	id := h.scheduler.Submit(req.Images, opts)

	writeJSON(w, http.StatusAccepted, convertResponse{JobID: id})
}

// JobStatus handles GET /api/jobs/{jobID}.
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	job, err := h.jobs.Get(id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			writeJSONError(w, "unknown job id: "+id, http.StatusNotFound)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
