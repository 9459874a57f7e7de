package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skillmatch/internal/database"
	"skillmatch/internal/domain/match"
	"skillmatch/internal/domain/matching"
)

type MatchRepository interface {
	CreateMatch(ctx context.Context, rec match.Record) error
	GetMatch(ctx context.Context, id uuid.UUID) (match.Record, error)
	GetUserMatch(ctx context.Context, userID, id uuid.UUID) (match.Record, error)
	ListUserMatches(ctx context.Context, userID uuid.UUID, limit, offset int) ([]match.Record, int, error)
	UpdateMatchStatus(ctx context.Context, id uuid.UUID, status match.Status, reason string) error
	CompleteMatch(ctx context.Context, id uuid.UUID, a matching.Analysis, reportKey string) error
}

const matchColumns = `id, user_id, status, resume_excerpt, job_excerpt, job_url,
	match_score, text_similarity, skill_coverage, ats_score,
	matched_skills, missing_skills, resume_skills, jd_skills,
	report_key, failure_reason, created_at, updated_at`

type SQLMatchRepository struct {
	db  database.DB
	now func() time.Time
}

func NewSQLMatchRepository(db database.DB) *SQLMatchRepository {
	return &SQLMatchRepository{db: db, now: time.Now}
}

func (r *SQLMatchRepository) CreateMatch(ctx context.Context, rec match.Record) error {
	now := r.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	lists, err := encodeSkillLists(rec.Analysis)
	if err != nil {
		return err
	}
	res := rec.Analysis.Result

	_, err = r.db.Exec(ctx,
		`INSERT INTO matches (`+matchColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		rec.ID, rec.UserID, string(rec.Status), rec.ResumeExcerpt, rec.JobExcerpt, rec.JobURL,
		res.MatchScore, res.TextSimilarity, res.SkillCoverage, res.ATSScore,
		lists[0], lists[1], lists[2], lists[3],
		rec.ReportKey, rec.FailureReason, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *SQLMatchRepository) GetMatch(ctx context.Context, id uuid.UUID) (match.Record, error) {
	return scanMatch(r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
}

func (r *SQLMatchRepository) GetUserMatch(ctx context.Context, userID, id uuid.UUID) (match.Record, error) {
	return scanMatch(r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1 AND user_id = $2`, id, userID))
}

// ListUserMatches returns one page of the user's matches, newest first, and
// the user's total match count.
func (r *SQLMatchRepository) ListUserMatches(ctx context.Context, userID uuid.UUID, limit, offset int) ([]match.Record, int, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM matches WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]match.Record, 0, limit)
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (r *SQLMatchRepository) UpdateMatchStatus(ctx context.Context, id uuid.UUID, status match.Status, reason string) error {
	n, err := r.db.Exec(ctx,
		`UPDATE matches SET status = $1, failure_reason = $2, updated_at = $3 WHERE id = $4`,
		string(status), reason, r.now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return match.ErrNotFound
	}
	return nil
}

func (r *SQLMatchRepository) CompleteMatch(ctx context.Context, id uuid.UUID, a matching.Analysis, reportKey string) error {
	lists, err := encodeSkillLists(a)
	if err != nil {
		return err
	}
	res := a.Result

	n, err := r.db.Exec(ctx,
		`UPDATE matches SET status = $1, match_score = $2, text_similarity = $3, skill_coverage = $4, ats_score = $5,
			matched_skills = $6, missing_skills = $7, resume_skills = $8, jd_skills = $9,
			report_key = $10, failure_reason = '', updated_at = $11
		 WHERE id = $12`,
		string(match.StatusCompleted), res.MatchScore, res.TextSimilarity, res.SkillCoverage, res.ATSScore,
		lists[0], lists[1], lists[2], lists[3],
		reportKey, r.now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return match.ErrNotFound
	}
	return nil
}

// encodeSkillLists keeps the nil/empty distinction: a nil list is stored as
// JSON null.
func encodeSkillLists(a matching.Analysis) ([4]string, error) {
	var out [4]string
	for i, list := range [][]string{a.Result.MatchedSkills, a.Result.MissingSkills, a.ResumeSkills, a.JDSkills} {
		b, err := json.Marshal(list)
		if err != nil {
			return out, fmt.Errorf("encode skills: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}

func decodeSkillList(raw string) ([]string, error) {
	var out []string
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	return out, nil
}

func scanMatch(row database.Row) (match.Record, error) {
	var (
		rec    match.Record
		status string
		raw    [4]string
	)
	res := &rec.Analysis.Result
	err := row.Scan(
		&rec.ID, &rec.UserID, &status, &rec.ResumeExcerpt, &rec.JobExcerpt, &rec.JobURL,
		&res.MatchScore, &res.TextSimilarity, &res.SkillCoverage, &res.ATSScore,
		&raw[0], &raw[1], &raw[2], &raw[3],
		&rec.ReportKey, &rec.FailureReason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return match.Record{}, match.ErrNotFound
		}
		return match.Record{}, err
	}
	rec.Status = match.Status(status)

	targets := []*[]string{&res.MatchedSkills, &res.MissingSkills, &rec.Analysis.ResumeSkills, &rec.Analysis.JDSkills}
	for i, dst := range targets {
		list, err := decodeSkillList(raw[i])
		if err != nil {
			return match.Record{}, err
		}
		*dst = list
	}
	return rec, nil
}
