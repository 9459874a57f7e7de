package handler

import (
	"errors"

	"skillmatch/internal/delivery/http/middleware"
	"skillmatch/internal/domain/feedback"
	"skillmatch/internal/pkg/response"
	"skillmatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type FeedbackHandler struct {
	uc usecase.FeedbackUsecase
}

type feedbackRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comments string `json:"comments" validate:"max=2000"`
}

func NewFeedbackHandler(uc usecase.FeedbackUsecase) *FeedbackHandler {
	return &FeedbackHandler{uc: uc}
}

func (h *FeedbackHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/feedback", h.Submit)
	r.Get("/feedback", h.List)
}

func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req feedbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	fb, err := h.uc.Submit(c.Context(), userID, req.Rating, req.Comments)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRating) || errors.Is(err, usecase.ErrInvalidInput) {
			return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusCreated, "Thank you for your feedback!", fb)
}

func (h *FeedbackHandler) List(c fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	items, err := h.uc.List(c.Context(), userID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	if items == nil {
		items = []feedback.Feedback{}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}
