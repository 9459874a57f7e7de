package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"skillmatch/internal/delivery/http/dto"
	"skillmatch/internal/delivery/http/middleware"
	"skillmatch/internal/domain/match"
	"skillmatch/internal/pkg/response"
	"skillmatch/internal/report"
	"skillmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const resumeFileField = "resume_file"

type MatchHandler struct {
	uc             usecase.MatchingUsecase
	maxUploadBytes int64
	baseURL        string
}

type matchRequest struct {
	ResumeText string `json:"resume_text" form:"resume_text" validate:"max=200000"`
	JobText    string `json:"job_text" form:"job_text" validate:"max=200000"`
	JobURL     string `json:"job_url" form:"job_url" validate:"omitempty,max=2048"`
}

func NewMatchHandler(uc usecase.MatchingUsecase, maxUploadBytes int64, baseURL string) *MatchHandler {
	return &MatchHandler{uc: uc, maxUploadBytes: maxUploadBytes, baseURL: baseURL}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Create)
	r.Post("/async", h.CreateAsync)
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Get("/:id/report", h.Report)
}

func (h *MatchHandler) Create(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	in, err := h.input(c)
	if err != nil {
		return err
	}

	rec, err := h.uc.Create(c.Context(), userID, in)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusCreated, response.MessageOK, dto.NewMatchResponse(rec, h.baseURL))
}

func (h *MatchHandler) CreateAsync(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	in, err := h.input(c)
	if err != nil {
		return err
	}

	rec, err := h.uc.CreateAsync(c.Context(), userID, in)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusAccepted, "Match queued", dto.NewMatchResponse(rec, h.baseURL))
}

func (h *MatchHandler) List(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	recs, total, err := h.uc.List(c.Context(), userID, page, limit)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	items := make([]dto.MatchResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, dto.NewMatchResponse(rec, h.baseURL))
	}
	if page < 1 {
		page = 1
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.MatchListResponse{
		Items: items,
		Page:  page,
		Limit: usecase.PageLimit(limit),
		Total: total,
	})
}

func (h *MatchHandler) Get(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := matchID(c)
	if err != nil {
		return err
	}

	rec, err := h.uc.Get(c.Context(), userID, id)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewMatchResponse(rec, h.baseURL))
}

func (h *MatchHandler) Report(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := matchID(c)
	if err != nil {
		return err
	}

	pdf, err := h.uc.Report(c.Context(), userID, id)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="updated_resume_`+id.String()+`.pdf"`)
	return c.Status(fiber.StatusOK).Send(pdf)
}

// input reads a multipart form (with an optional resume_file) or a JSON body.
func (h *MatchHandler) input(c fiber.Ctx) (usecase.MatchInput, error) {
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		var req matchRequest
		if err := bindAndValidate(c, &req); err != nil {
			return usecase.MatchInput{}, err
		}
		return usecase.MatchInput{ResumeText: req.ResumeText, JobText: req.JobText, JobURL: req.JobURL}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return usecase.MatchInput{}, middleware.NewAppError(fiber.StatusBadRequest, "Invalid multipart form", nil, err)
	}
	req := matchRequest{
		ResumeText: formValue(form, "resume_text"),
		JobText:    formValue(form, "job_text"),
		JobURL:     formValue(form, "job_url"),
	}
	if err := validateStruct(&req); err != nil {
		return usecase.MatchInput{}, err
	}

	in := usecase.MatchInput{ResumeText: req.ResumeText, JobText: req.JobText, JobURL: req.JobURL}
	if files := form.File[resumeFileField]; len(files) > 0 && files[0].Filename != "" {
		file, err := h.readUpload(files[0])
		if err != nil {
			return usecase.MatchInput{}, err
		}
		in.ResumeFile = file
	}
	return in, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (h *MatchHandler) readUpload(fh *multipart.FileHeader) (*usecase.ResumeFile, error) {
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return nil, middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Uploaded file is too large", nil, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, middleware.NewAppError(fiber.StatusBadRequest, usecase.ErrUnreadableFile.Error(), nil, err)
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, middleware.NewAppError(fiber.StatusBadRequest, usecase.ErrUnreadableFile.Error(), nil, err)
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		return nil, middleware.NewAppError(fiber.StatusRequestEntityTooLarge, "Uploaded file is too large", nil, nil)
	}

	return &usecase.ResumeFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func matchID(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	}
	return id, nil
}

func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, middleware.NewAppError(fiber.StatusBadRequest, "Invalid "+key, nil, err)
	}
	return n, nil
}

func mapMatchingUsecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrMissingResume),
		errors.Is(err, usecase.ErrMissingJob),
		errors.Is(err, usecase.ErrUnsupportedFile),
		errors.Is(err, usecase.ErrUnreadableFile),
		errors.Is(err, usecase.ErrMalformedText),
		errors.Is(err, usecase.ErrInvalidJobURL),
		errors.Is(err, usecase.ErrJobFetchFailed):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrMatchNotFound), errors.Is(err, match.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Match not found", nil, err)
	case errors.Is(err, usecase.ErrReportNotReady):
		return middleware.NewAppError(fiber.StatusConflict, "Report not available yet", nil, err)
	case errors.Is(err, usecase.ErrQueueUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Async matching is not available", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, "Error during matching", nil, err)
	}
}
