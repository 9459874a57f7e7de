package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/domain/feedback"
	"skillmatch/internal/repository"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

const maxFeedbackComment = 2000

type FeedbackUsecase interface {
	Submit(ctx context.Context, userID uuid.UUID, rating int, comments string) (feedback.Feedback, error)
	List(ctx context.Context, userID uuid.UUID) ([]feedback.Feedback, error)
}

type Feedback struct {
	repo repository.FeedbackRepository
	now  func() time.Time
}

func NewFeedbackUsecase(repo repository.FeedbackRepository) *Feedback {
	return &Feedback{repo: repo, now: time.Now}
}

func (u *Feedback) Submit(ctx context.Context, userID uuid.UUID, rating int, comments string) (feedback.Feedback, error) {
	if rating < feedback.MinRating || rating > feedback.MaxRating {
		return feedback.Feedback{}, ErrInvalidRating
	}
	comments = strings.TrimSpace(comments)
	if len(comments) > maxFeedbackComment {
		return feedback.Feedback{}, ErrInvalidInput
	}

	f := feedback.Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		Rating:    rating,
		Comments:  comments,
		CreatedAt: u.now().UTC(),
	}
	if err := u.repo.CreateFeedback(ctx, f); err != nil {
		return feedback.Feedback{}, ErrInternal
	}
	return f, nil
}

func (u *Feedback) List(ctx context.Context, userID uuid.UUID) ([]feedback.Feedback, error) {
	items, err := u.repo.ListFeedbackByUser(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}
