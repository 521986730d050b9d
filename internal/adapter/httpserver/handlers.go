package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor"
	"github.com/fairyhunter13/ai-interview-assistant/internal/config"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-assistant/internal/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/usecase"
)

// Client-facing messages.
const (
	MsgUnsupportedFile     = "Unsupported file type. Use PDF, DOCX, or TXT"
	MsgGenerationFailed    = "Failed to generate questions"
	MsgGenerationSucceeded = "Questions generated successfully"
	MsgAssessmentFailed    = "Failed to assess answers"
	MsgAssessmentSucceeded = "Answers assessed successfully"
	MsgCandidateNotFound   = "Candidate record not found"
	MsgInvalidJSON         = "Invalid JSON body"
	MsgPayloadTooLarge     = "Resume file is too large"
)

const maxJSONBody = 1 << 20

// QuestionGenerator produces interview questions from a resume and skills.
type QuestionGenerator interface {
	Generate(ctx context.Context, resume, skills string) ([]domain.Question, error)
}

// InterviewSubmitter scores a submitted interview.
type InterviewSubmitter interface {
	Submit(ctx context.Context, candidateID string, items []domain.AnswerSubmission) (usecase.InterviewReport, error)
}

// CandidateDirectory creates and reads candidate profiles.
type CandidateDirectory interface {
	Create(ctx context.Context, in usecase.NewCandidate) (string, error)
	Get(ctx context.Context, id string) (domain.Candidate, error)
	UpdateProfile(ctx context.Context, id string, in usecase.NewCandidate) (domain.Candidate, error)
	Leaderboard(ctx context.Context) ([]domain.Candidate, error)
}

// Server aggregates handlers dependencies.
type Server struct {
	Cfg        config.Config
	Questions  QuestionGenerator
	Interviews InterviewSubmitter
	Candidates CandidateDirectory
	// Extractor handles PDF and DOCX resumes; plain text is read in place.
	Extractor domain.TextExtractor
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, questions QuestionGenerator, interviews InterviewSubmitter, candidates CandidateDirectory, extractor domain.TextExtractor) *Server {
	return &Server{Cfg: cfg, Questions: questions, Interviews: interviews, Candidates: candidates, Extractor: extractor}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New(validator.WithRequiredStructEnabled()) })
	return vld
}

// GenerateQuestionsHandler accepts a multipart (or url-encoded) form with an
// optional resume file and an optional skills field.
func (s *Server) GenerateQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := s.Cfg.MaxUploadBytes()
		// Multipart framing and the skills field ride on top of the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, limit+maxJSONBody)
		if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: MsgPayloadTooLarge, Code: "PAYLOAD_TOO_LARGE"})
				return
			}
			writeError(w, r, domain.NewValidationError("Invalid form body"), "")
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}

		skills := r.FormValue("skills")
		resume := ""
		if r.MultipartForm != nil {
			file, header, err := r.FormFile("resume")
			switch {
			case errors.Is(err, http.ErrMissingFile):
			case err != nil:
				writeError(w, r, domain.NewValidationError("Invalid resume upload"), "")
				return
			default:
				resume, err = s.resumeText(r.Context(), file, header)
				_ = file.Close()
				if err != nil {
					writeError(w, r, err, MsgGenerationFailed)
					return
				}
			}
		}

		if err := usecase.CheckGenerationInput(resume, skills); err != nil {
			writeError(w, r, err, "")
			return
		}
		questions, err := s.Questions.Generate(r.Context(), resume, skills)
		if err != nil {
			writeError(w, r, err, MsgGenerationFailed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"questions":      questions,
			"resumeLength":   utf8.RuneCountInString(resume),
			"skillsProvided": strings.TrimSpace(skills) != "",
			"message":        MsgGenerationSucceeded,
		})
	}
}

// resumeText sniffs the upload and extracts its text. Plain text is read in
// place; PDF and DOCX are spooled to a temp file for the extractor.
func (s *Server) resumeText(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", domain.NewValidationError("Invalid resume upload")
	}
	mt := mimetype.Detect(data)
	kind := resumeKind(mt)
	switch kind {
	case "":
		obsctx.LoggerFromContext(ctx).Info("resume rejected", slog.String("mime", mt.String()), slog.String("filename", header.Filename))
		return "", domain.NewValidationError(MsgUnsupportedFile)
	case textextractor.MIMEText:
		return textextractor.Normalize(string(data)), nil
	}
	if s.Extractor == nil {
		return "", domain.NewValidationError(MsgUnsupportedFile)
	}

	tmp, err := os.CreateTemp("", "resume-*"+mt.Extension())
	if err != nil {
		return "", fmt.Errorf("op=http.resume: %w: %w", domain.ErrInternal, err)
	}
	defer func() { _ = tmp.Close(); _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("op=http.resume: %w: %w", domain.ErrInternal, err)
	}
	// The extractor picks its parser from the name, so it must agree with the sniffed type.
	name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename)) + mt.Extension()
	text, err := s.Extractor.ExtractPath(ctx, name, tmp.Name())
	if err != nil {
		if errors.Is(err, textextractor.ErrUnsupportedType) {
			return "", domain.NewValidationError(MsgUnsupportedFile)
		}
		return "", err
	}
	return text, nil
}

func resumeKind(mt *mimetype.MIME) string {
	switch {
	case mt.Is(textextractor.MIMEPDF):
		return textextractor.MIMEPDF
	case mt.Is(textextractor.MIMEDOCX):
		return textextractor.MIMEDOCX
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(textextractor.MIMEText) {
			return textextractor.MIMEText
		}
	}
	return ""
}

type submitItem struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Level    string `json:"level" validate:"required,oneof=Easy Medium Hard"`
}

type submitRequest struct {
	CandidateID         string       `json:"candidateId" validate:"max=128"`
	QuestionsAndAnswers []submitItem `json:"questionsAndAnswers" validate:"required,min=1,dive"`
}

type assessmentView struct {
	QuestionNumber int `json:"questionNumber"`
	domain.AnswerAssessment
}

// SubmitAnswerHandler scores a full interview and records it against the
// candidate when candidateId is given.
func (s *Server) SubmitAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, decodeSubmitError(err), "")
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, submissionError(err), "")
			return
		}
		items := make([]domain.AnswerSubmission, len(req.QuestionsAndAnswers))
		for i, it := range req.QuestionsAndAnswers {
			items[i] = domain.AnswerSubmission{Question: it.Question, Answer: it.Answer, Level: domain.Level(it.Level)}
		}

		ctx := r.Context()
		candidateID := strings.TrimSpace(req.CandidateID)
		if candidateID != "" {
			ctx = obsctx.ContextWithAttrs(ctx, slog.String("candidate_id", candidateID))
		}
		report, err := s.Interviews.Submit(ctx, candidateID, items)
		if err != nil {
			writeError(w, r, err, MsgAssessmentFailed)
			return
		}
		views := make([]assessmentView, len(report.Assessments))
		flagged := false
		for i, a := range report.Assessments {
			views[i] = assessmentView{QuestionNumber: i + 1, AnswerAssessment: a}
			flagged = flagged || a.ScoreFlagged
		}
		body := map[string]any{
			"success":          true,
			"interviewId":      report.InterviewID,
			"assessments":      views,
			"finalScore":       report.FinalScore,
			"maxPossibleScore": report.MaxPossibleScore,
			"persisted":        report.Persisted,
			"scoreFlagged":     flagged,
			"message":          MsgAssessmentSucceeded,
		}
		if report.Overall != nil {
			body["overallAssessment"] = report.Overall
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func decodeSubmitError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		if te.Field == "questionsAndAnswers" {
			return domain.NewValidationError(domain.MsgSubmissionRequired)
		}
		return domain.NewValidationError(domain.MsgSubmissionFields)
	}
	if errors.Is(err, io.EOF) {
		return domain.NewValidationError(domain.MsgSubmissionRequired)
	}
	return domain.NewValidationError(MsgInvalidJSON)
}

// submissionError maps the first validation failure to its client message.
func submissionError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return domain.NewValidationError(domain.MsgSubmissionFields)
	}
	fe := ve[0]
	switch {
	case fe.Field() == "QuestionsAndAnswers":
		return domain.NewValidationError(domain.MsgSubmissionRequired)
	case fe.Field() == "Level" && fe.Tag() == "oneof":
		return domain.NewValidationError(domain.MsgSubmissionLevel)
	case fe.Field() == "CandidateID":
		return domain.NewValidationError("candidateId is invalid")
	}
	return domain.NewValidationError(domain.MsgSubmissionFields)
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email,max=320"`
	Phone string `json:"phone" validate:"max=50"`
}

// decodeProfile reads and validates a candidate profile body, writing the 400
// itself when the body is unusable.
func decodeProfile(w http.ResponseWriter, r *http.Request) (usecase.NewCandidate, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.NewValidationError(MsgInvalidJSON), "")
		return usecase.NewCandidate{}, false
	}
	if err := getValidator().Struct(req); err != nil {
		fields := []string{}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
		}
		writeError(w, r, domain.NewValidationError("invalid candidate fields: %s", strings.Join(fields, ", ")), "")
		return usecase.NewCandidate{}, false
	}
	return usecase.NewCandidate{Name: req.Name, Email: req.Email, Phone: req.Phone}, true
}

// CreateCandidateHandler creates a candidate profile.
func (s *Server) CreateCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		id, err := s.Candidates.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err, "Failed to create candidate")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// UpdateCandidateHandler replaces a candidate's contact fields.
func (s *Server) UpdateCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeProfile(w, r)
		if !ok {
			return
		}
		c, err := s.Candidates.UpdateProfile(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, err, MsgCandidateNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GetCandidateHandler returns one candidate with its interview history.
func (s *Server) GetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Candidates.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, MsgCandidateNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// ListCandidatesHandler returns the leaderboard, highest final score first.
func (s *Server) ListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := s.Candidates.Leaderboard(r.Context())
		if err != nil {
			writeError(w, r, err, "Failed to list candidates")
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ReadyzHandler runs every check and reports 503 when any fails.
func ReadyzHandler(checks []ReadinessCheck) http.HandlerFunc {
	type result struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		out := make([]result, 0, len(checks))
		st := http.StatusOK
		for _, c := range checks {
			res := result{Name: c.Name, OK: true}
			if err := c.Check(ctx); err != nil {
				res.OK = false
				res.Details = err.Error()
				st = http.StatusServiceUnavailable
			}
			out = append(out, res)
		}
		writeJSON(w, st, map[string]any{"checks": out})
	}
}
