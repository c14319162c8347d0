package server

import (
	"context"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	skillsnapErrors "skillsnap/internal/errors"
	"skillsnap/internal/observability"
	"skillsnap/internal/resume"
)

const tracerName = "skillsnap.api"

// startSpan opens the span for one API operation
func startSpan(om *observability.ObservabilityManager, r *http.Request, name string) (context.Context, trace.Span) {
	return om.Tracer(tracerName).Start(r.Context(), name)
}

// fail records err on the span and writes the mapped error response
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.type", string(skillsnapErrors.TypeOf(err))))
	writeAppError(w, err)
}

// createUploadHandler handles multipart resume uploads
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.upload")
		defer span.End()

		if err := r.ParseMultipartForm(multipartMemory(s.MaxRequestSize)); err != nil {
			s.fail(w, span, skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeInvalidRequest,
				"invalid multipart form", err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.fail(w, span, skillsnapErrors.NewValidationError(skillsnapErrors.ErrCodeMissingField,
				"file field is required", err))
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			s.fail(w, span, skillsnapErrors.NewIOError(skillsnapErrors.ErrCodeFileNotReadable,
				"failed to read uploaded file", err))
			return
		}

		span.SetAttributes(
			attribute.String("request.filename", header.Filename),
			attribute.Int("request.file_size", len(data)),
		)

		result, err := s.Runtime.Service.Upload(ctx, resume.UploadInput{
			UserID:   r.FormValue("user_id"),
			Filename: header.Filename,
			Data:     data,
		})
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.String("resume.id", result.ResumeID),
			attribute.Int("resume.skills_count", len(result.ExtractedSkills)),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

// createAnalyzeHandler scores a stored resume and persists the result
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.analyze")
		defer span.End()

		var req AnalyzeRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		id := r.PathValue("id")
		span.SetAttributes(
			attribute.String("resume.id", id),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		result, err := s.Runtime.Service.Analyze(ctx, id, req.JobDescription)
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.String("analysis.mode", result.Mode),
			attribute.Float64("analysis.ats_score", result.ATSScore),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

// createScoreHandler scores resume text without touching the store
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.score")
		defer span.End()

		var req ScoreRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		result, err := s.Runtime.Service.Score(ctx, req.ResumeText, req.JobDescription)
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(attribute.Float64("analysis.ats_score", result.ATSScore))
		writeJSON(w, http.StatusOK, result)
	}
}

// createVocabularyHandler lists the loaded skill vocabulary, or reports whether ?label= is an entry
func (s *Server) createVocabularyHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := startSpan(om, r, "api.vocabulary")
		defer span.End()

		models, err := s.Runtime.Barrier.Models()
		if err != nil {
			s.fail(w, span, err)
			return
		}
		vocab := models.Vocabulary
		resp := VocabularyResponse{Version: vocab.Version(), Size: vocab.Len()}
		if label := strings.TrimSpace(r.URL.Query().Get("label")); label != "" {
			known := vocab.Contains(label)
			resp.Label, resp.Known = label, &known
		} else {
			resp.Entries = vocab.Entries()
		}
		span.SetAttributes(attribute.Int("vocabulary.size", resp.Size))
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) createListHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.list")
		defer span.End()

		summaries, err := s.Runtime.Service.List(ctx, r.PathValue("user_id"))
		if err != nil {
			s.fail(w, span, err)
			return
		}
		span.SetAttributes(attribute.Int("response.count", len(summaries)))
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) createGetHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.get")
		defer span.End()

		doc, err := s.Runtime.Service.Get(ctx, r.PathValue("id"))
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func (s *Server) createDeleteHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.delete")
		defer span.End()

		if err := s.Runtime.Service.Delete(ctx, r.PathValue("id")); err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted successfully"})
	}
}

// createOptimizeHandler asks the provider for a rewrite and stores it as a derivative
func (s *Server) createOptimizeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.optimize")
		defer span.End()

		var req OptimizeRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		id := r.PathValue("id")
		span.SetAttributes(
			attribute.String("resume.id", id),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		result, err := s.Runtime.Service.Optimize(ctx, id, resume.OptimizeInput{
			JobDescription: req.JobDescription,
			CompanyName:    req.CompanyName,
		})
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.String("derivative.id", result.OptimizedResumeID),
			attribute.Int("derivative.version", result.Version),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

// createVersionsHandler lists the resume and its direct derivatives, or the whole subtree when
// deep is set
func (s *Server) createVersionsHandler(om *observability.ObservabilityManager, deep bool) http.HandlerFunc {
	name := "api.versions"
	if deep {
		name = "api.lineage"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, name)
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("resume.id", id))

		load := s.Runtime.Service.Versions
		if deep {
			load = s.Runtime.Service.Lineage
		}
		history, err := load(ctx, id)
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(attribute.Int("response.total_versions", history.TotalVersions))
		writeJSON(w, http.StatusOK, history)
	}
}

func (s *Server) createCompareHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.compare")
		defer span.End()

		var req CompareRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		id := r.PathValue("id")
		span.SetAttributes(
			attribute.String("resume.id", id),
			attribute.Int("request.version1", req.Version1),
			attribute.Int("request.version2", req.Version2),
			attribute.Bool("request.narrative", req.Narrative),
		)

		result, err := s.Runtime.Service.Compare(ctx, id, resume.CompareInput{
			Version1:  req.Version1,
			Version2:  req.Version2,
			Narrative: req.Narrative,
		})
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(attribute.String("comparison.trend", result.Comparison.ScoreChange.Trend))
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) createQualityCheckHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.quality_check")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("resume.id", id))

		report, err := s.Runtime.Service.QualityCheck(ctx, id)
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// createExplainScoreHandler explains the stored analysis of a resume
func (s *Server) createExplainScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.explain_score")
		defer span.End()

		var req ExplainRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		id := r.PathValue("id")
		span.SetAttributes(
			attribute.String("resume.id", id),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		explanation, err := s.Runtime.Service.ExplainScore(ctx, id, resume.ExplainInput{JobDescription: req.JobDescription})
		if err != nil {
			s.fail(w, span, err)
			return
		}
		writeJSON(w, http.StatusOK, explanation)
	}
}

func (s *Server) createInterviewQuestionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(om, r, "api.interview_questions")
		defer span.End()

		var req InterviewRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			s.fail(w, span, err)
			return
		}

		id := r.PathValue("id")
		span.SetAttributes(
			attribute.String("resume.id", id),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		prep, err := s.Runtime.Service.InterviewQuestions(ctx, id, resume.InterviewInput{JobDescription: req.JobDescription})
		if err != nil {
			s.fail(w, span, err)
			return
		}

		span.SetAttributes(attribute.String("interview.difficulty", prep.OverallDifficulty))
		writeJSON(w, http.StatusOK, prep)
	}
}

// multipartMemory caps the in-memory part of a parsed form; larger files spill to disk.
func multipartMemory(limit int64) int64 {
	const defaultMemory = 32 << 20
	if limit > 0 && limit < defaultMemory {
		return limit
	}
	return defaultMemory
}
