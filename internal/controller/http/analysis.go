package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vadim/chat-recap/internal/domain/transcript/entity"
	"github.com/vadim/chat-recap/internal/domain/transcript/policy"
	"github.com/vadim/chat-recap/internal/domain/transcript/service"
	"github.com/vadim/chat-recap/internal/httpx/response"
)

// multipart framing and JSON escaping on top of the raw transcript
const bodyOverhead = 1 << 20

// AnalysisPolicy defines the interface for analysis operations
// Interface is defined by consumer (handler), not provider (policy)
type AnalysisPolicy interface {
	Analyze(ctx context.Context, in policy.AnalyzeInput) (*entity.Report, error)
	Reanalyze(ctx context.Context, in policy.ReanalyzeInput) (*entity.Report, error)
	Get(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, in policy.ListInput) (*service.ListOutput, error)
	Delete(ctx context.Context, id string) error
}

// AnalysisHandler handles HTTP requests for transcript analyses
type AnalysisHandler struct {
	policy      AnalysisPolicy
	validate    *validator.Validate
	maxBodySize int64
}

// NewAnalysisHandler creates a new analysis handler.
// maxTranscriptBytes bounds the request body; <= 0 leaves it unbounded.
func NewAnalysisHandler(p AnalysisPolicy, maxTranscriptBytes int64) *AnalysisHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	var maxBody int64
	if maxTranscriptBytes > 0 {
		maxBody = maxTranscriptBytes + bodyOverhead
	}

	return &AnalysisHandler{
		policy:      p,
		validate:    v,
		maxBodySize: maxBody,
	}
}

// RegisterRoutes registers analysis routes
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analyses", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Delete("/{id}", h.Delete())
		r.Post("/{id}/reanalyze", h.Reanalyze())
	})
}

// AnalyzeRequest represents the JSON body for analyzing a transcript
type AnalyzeRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	SourceName string `json:"sourceName,omitempty" validate:"max=255"`
	DateOrder  string `json:"dateOrder,omitempty" validate:"omitempty,oneof=dmy mdy"`
}

// ListResponse represents a page of stored analyses
type ListResponse struct {
	Reports []entity.ReportSummary `json:"reports"`
	Total   int64                  `json:"total"`
	HasMore bool                   `json:"hasMore"`
}

// Create handles POST /analyses.
// Accepts a multipart upload (field "file"), a JSON AnalyzeRequest,
// or the raw transcript as a text/plain body.
func (h *AnalysisHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.maxBodySize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}

		req, err := h.readAnalyzeRequest(r)
		if err != nil {
			handleRequestError(w, err)
			return
		}

		if fields := h.validateRequest(req); len(fields) > 0 {
			response.ValidationFailed(w, fields)
			return
		}

		report, err := h.policy.Analyze(r.Context(), policy.AnalyzeInput{
			Transcript: req.Transcript,
			SourceName: req.SourceName,
			DateOrder:  req.DateOrder,
		})
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		response.Created(w, report)
	}
}

func (h *AnalysisHandler) readAnalyzeRequest(r *http.Request) (AnalyzeRequest, error) {
	q := r.URL.Query()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.memoryLimit()); err != nil {
			return AnalyzeRequest{}, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return AnalyzeRequest{}, errMissingFile
		}
		defer file.Close()

		body, err := io.ReadAll(file)
		if err != nil {
			return AnalyzeRequest{}, err
		}

		sourceName := r.FormValue("source_name")
		if sourceName == "" {
			sourceName = header.Filename
		}
		dateOrder := r.FormValue("date_order")
		if dateOrder == "" {
			dateOrder = q.Get("date_order")
		}

		return AnalyzeRequest{
			Transcript: string(body),
			SourceName: sourceName,
			DateOrder:  dateOrder,
		}, nil

	case "application/json":
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return AnalyzeRequest{}, err
			}
			return AnalyzeRequest{}, errInvalidJSON
		}
		return req, nil

	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return AnalyzeRequest{}, err
		}
		return AnalyzeRequest{
			Transcript: string(body),
			SourceName: q.Get("source_name"),
			DateOrder:  q.Get("date_order"),
		}, nil
	}
}

func (h *AnalysisHandler) memoryLimit() int64 {
	if h.maxBodySize > 0 {
		return h.maxBodySize
	}
	return 32 << 20
}

func (h *AnalysisHandler) validateRequest(req AnalyzeRequest) []response.FieldError {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []response.FieldError{{Message: err.Error()}}
	}

	fields := make([]response.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, response.FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// List handles GET /analyses
func (h *AnalysisHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit, err := parseOptionalInt(q.Get("limit"))
		if err != nil {
			response.BadRequest(w, "invalid limit")
			return
		}
		offset, err := parseOptionalInt(q.Get("offset"))
		if err != nil {
			response.BadRequest(w, "invalid offset")
			return
		}

		out, err := h.policy.List(r.Context(), policy.ListInput{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		reports := out.Reports
		if reports == nil {
			reports = []entity.ReportSummary{}
		}

		response.OK(w, ListResponse{
			Reports: reports,
			Total:   out.Total,
			HasMore: out.HasMore,
		})
	}
}

// Get handles GET /analyses/{id}
func (h *AnalysisHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		report, err := h.policy.Get(r.Context(), id)
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		response.OK(w, report)
	}
}

// Delete handles DELETE /analyses/{id}
func (h *AnalysisHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := h.policy.Delete(r.Context(), id); err != nil {
			handleAnalysisError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Reanalyze handles POST /analyses/{id}/reanalyze?date_order=mdy
func (h *AnalysisHandler) Reanalyze() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		report, err := h.policy.Reanalyze(r.Context(), policy.ReanalyzeInput{
			ID:        id,
			DateOrder: r.URL.Query().Get("date_order"),
		})
		if err != nil {
			handleAnalysisError(w, err)
			return
		}

		response.OK(w, report)
	}
}

var (
	errInvalidJSON = errors.New("invalid JSON")
	errMissingFile = errors.New("multipart field \"file\" is required")
)

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func handleRequestError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, multipart.ErrMessageTooLarge):
		response.PayloadTooLarge(w, entity.ErrTranscriptTooLarge.Error())
	case errors.Is(err, errInvalidJSON), errors.Is(err, errMissingFile):
		response.BadRequest(w, err.Error())
	default:
		response.BadRequest(w, "could not read request body")
	}
}

func handleAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrReportNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrEmptyTranscript), errors.Is(err, entity.ErrInvalidDateOrder):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrTranscriptTooLarge):
		response.PayloadTooLarge(w, err.Error())
	case errors.Is(err, entity.ErrUnrecognizedFormat):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, entity.ErrPersistenceDisabled), errors.Is(err, entity.ErrArchiveDisabled):
		response.NotImplemented(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
