package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/internal/store"
	"github.com/jmylchreest/jobscribe/pkg/drafts"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
	"github.com/jmylchreest/jobscribe/pkg/llm"
)

// maxBodySize bounds request bodies; resumes are the largest payload.
const maxBodySize = 1 << 20

type ResumeRequest struct {
	ResumeText  string `json:"resumeText" validate:"required"`
	CleanedText string `json:"cleanedText"`
	Summary     string `json:"summary"`
}

type CreateApplicationRequest struct {
	CompanyName    string `json:"companyName" validate:"required_without=JobTitle"`
	JobTitle       string `json:"jobTitle" validate:"required_without=CompanyName"`
	JobDescription string `json:"jobDescription"`
	CoverLetter    string `json:"coverLetter"`
	ColdEmail      string `json:"coldEmail"`
	Status         string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// decode reads a JSON body into v and runs its validate tags. It writes the
// 400 response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Field()+" is "+e.Tag())
	}
	return "Validation failed: " + strings.Join(msgs, ", ")
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req jobscribe.Request
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.extractor.ExtractJobDescription(r.Context(), req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case errors.Is(err, jobscribe.ErrInvalidURL):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobscribe.ErrParse), errors.Is(err, jobscribe.ErrQuota):
		logger.Warn("extraction failed", "url", req.JobURL, "error", err)
		respondError(w, http.StatusBadGateway, "Extraction failed: "+err.Error())
	default:
		logger.Error("extraction failed", "url", req.JobURL, "error", err)
		respondError(w, http.StatusInternalServerError, "Extraction failed: "+err.Error())
	}
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	if s.writer == nil {
		respondError(w, http.StatusServiceUnavailable, "No language model configured")
		return
	}
	var req drafts.DraftRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.writer.GenerateDrafts(r.Context(), req)
	if err != nil {
		respondModelError(w, "Draft generation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummarizeResume(w http.ResponseWriter, r *http.Request) {
	if s.writer == nil {
		respondError(w, http.StatusServiceUnavailable, "No language model configured")
		return
	}
	var req struct {
		ResumeText string `json:"resumeText"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.writer.SummarizeResume(r.Context(), req.ResumeText)
	if errors.Is(err, drafts.ErrEmptyResume) {
		respondError(w, http.StatusBadRequest, "resumeText is required")
		return
	}
	if err != nil {
		respondModelError(w, "Resume summary failed", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func respondModelError(w http.ResponseWriter, prefix string, err error) {
	if errors.Is(err, drafts.ErrParse) || llm.IsRateLimited(err) {
		logger.Warn(strings.ToLower(prefix), "error", err)
		respondError(w, http.StatusBadGateway, prefix+": "+err.Error())
		return
	}
	logger.Error(strings.ToLower(prefix), "error", err)
	respondError(w, http.StatusInternalServerError, prefix+": "+err.Error())
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	resume, err := s.store.LoadResume(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No resume saved")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load resume: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resume)
}

func (s *Server) handlePutResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if !s.decode(w, r, &req) {
		return
	}
	saved, err := s.store.SaveResume(r.Context(), store.Resume{
		Text:        req.ResumeText,
		CleanedText: req.CleanedText,
		Summary:     req.Summary,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save resume: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch applications: "+err.Error())
		return
	}
	// Return empty list if nil to be JSON friendly
	if apps == nil {
		apps = []store.Application{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items": apps,
		"total": len(apps),
	})
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if !s.decode(w, r, &req) {
		return
	}

	app, err := s.store.Create(r.Context(), store.Application{
		CompanyName:    req.CompanyName,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		CoverLetter:    req.CoverLetter,
		ColdEmail:      req.ColdEmail,
		Status:         store.Status(req.Status),
	})
	if errors.Is(err, store.ErrInvalidStatus) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save application: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch application: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Application not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete application: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), store.Status(req.Status))
	switch {
	case errors.Is(err, store.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Application not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to update status: "+err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}
