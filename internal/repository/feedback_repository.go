package repository

import (
	"context"

	"github.com/google/uuid"

	"skillmatch/internal/database"
	"skillmatch/internal/domain/feedback"
)

type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, f feedback.Feedback) error
	ListFeedbackByUser(ctx context.Context, userID uuid.UUID) ([]feedback.Feedback, error)
}

type SQLFeedbackRepository struct {
	db database.DB
}

func NewSQLFeedbackRepository(db database.DB) *SQLFeedbackRepository {
	return &SQLFeedbackRepository{db: db}
}

func (r *SQLFeedbackRepository) CreateFeedback(ctx context.Context, f feedback.Feedback) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO feedback (id, user_id, rating, comments, created_at) VALUES ($1,$2,$3,$4,$5)`,
		f.ID, f.UserID, f.Rating, f.Comments, f.CreatedAt,
	)
	return err
}

func (r *SQLFeedbackRepository) ListFeedbackByUser(ctx context.Context, userID uuid.UUID) ([]feedback.Feedback, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, rating, comments, created_at FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]feedback.Feedback, 0)
	for rows.Next() {
		var f feedback.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Rating, &f.Comments, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
