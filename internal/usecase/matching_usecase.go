package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"skillmatch/internal/document"
	"skillmatch/internal/domain/match"
	"skillmatch/internal/domain/matching"
	"skillmatch/internal/infrastructure/cache"
	"skillmatch/internal/infrastructure/fetcher"
	"skillmatch/internal/infrastructure/storage"
	"skillmatch/internal/logger"
	"skillmatch/internal/report"
	"skillmatch/internal/repository"
)

var (
	ErrMissingResume    = errors.New("please provide resume text or upload a file")
	ErrMissingJob       = errors.New("please provide a job description or job url")
	ErrUnsupportedFile  = errors.New("unsupported file type, use pdf, docx or txt")
	ErrUnreadableFile   = errors.New("uploaded file could not be read")
	ErrMalformedText    = errors.New("text is not valid UTF-8")
	ErrInvalidJobURL    = errors.New("invalid job url")
	ErrJobFetchFailed   = errors.New("could not fetch the job description")
	ErrMatchFailed      = errors.New("error during matching")
	ErrMatchNotFound    = errors.New("match not found")
	ErrReportNotReady   = errors.New("report not available")
	ErrQueueUnavailable = errors.New("async matching is not available")
)

const (
	excerptRunes     = 500
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ResumeFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MatchInput carries the two sides of a match. An uploaded file replaces the
// pasted resume text; pasted job text wins over JobURL.
type MatchInput struct {
	ResumeText string
	ResumeFile *ResumeFile
	JobText    string
	JobURL     string
}

type MatchingUsecase interface {
	Create(ctx context.Context, userID uuid.UUID, in MatchInput) (match.Record, error)
	CreateAsync(ctx context.Context, userID uuid.UUID, in MatchInput) (match.Record, error)
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]match.Record, int, error)
	Get(ctx context.Context, userID, matchID uuid.UUID) (match.Record, error)
	Report(ctx context.Context, userID, matchID uuid.UUID) ([]byte, error)
	Process(ctx context.Context, req match.Request) error
}

type MatchingDeps struct {
	Matcher *matching.Matcher
	Matches repository.MatchRepository
	Store   storage.Store
	Cache   AnalysisCache
	Fetcher JobFetcher
	Queue   MatchQueue
	Logger  *zap.Logger
}

type Matching struct {
	matcher *matching.Matcher
	matches repository.MatchRepository
	store   storage.Store
	cache   AnalysisCache
	fetcher JobFetcher
	queue   MatchQueue
	logger  *zap.Logger
	now     func() time.Time
}

func NewMatchingUsecase(d MatchingDeps) *Matching {
	return &Matching{
		matcher: d.Matcher,
		matches: d.Matches,
		store:   d.Store,
		cache:   d.Cache,
		fetcher: d.Fetcher,
		queue:   d.Queue,
		logger:  logger.Named(d.Logger, "matching"),
		now:     time.Now,
	}
}

// Create runs a match synchronously, stores its report and records it in the
// user's history. Nothing is persisted when any step fails.
func (u *Matching) Create(ctx context.Context, userID uuid.UUID, in MatchInput) (match.Record, error) {
	if userID == uuid.Nil {
		return match.Record{}, ErrUnauthorized
	}

	resume, job, err := u.acquire(ctx, in, true)
	if err != nil {
		return match.Record{}, err
	}

	a, err := u.analyze(ctx, resume, job)
	if err != nil {
		return match.Record{}, err
	}

	id := uuid.New()
	key, err := u.storeReport(ctx, id, resume, a)
	if err != nil {
		return match.Record{}, err
	}

	now := u.now().UTC()
	rec := match.Record{
		ID:            id,
		UserID:        userID,
		Status:        match.StatusCompleted,
		ResumeExcerpt: excerpt(resume),
		JobExcerpt:    excerpt(job),
		JobURL:        strings.TrimSpace(in.JobURL),
		Analysis:      a,
		ReportKey:     key,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.matches.CreateMatch(ctx, rec); err != nil {
		u.logger.Error("persist match failed", zap.String(logger.FieldMatchID, id.String()), zap.Error(err))
		u.dropReport(key)
		return match.Record{}, ErrInternal
	}
	return rec, nil
}

// CreateAsync records a queued match and hands it to the workers. The resume
// is read now; a job URL is fetched by the worker.
func (u *Matching) CreateAsync(ctx context.Context, userID uuid.UUID, in MatchInput) (match.Record, error) {
	if userID == uuid.Nil {
		return match.Record{}, ErrUnauthorized
	}
	if u.queue == nil {
		return match.Record{}, ErrQueueUnavailable
	}

	resume, job, err := u.acquire(ctx, in, false)
	if err != nil {
		return match.Record{}, err
	}

	now := u.now().UTC()
	rec := match.Record{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        match.StatusQueued,
		ResumeExcerpt: excerpt(resume),
		JobExcerpt:    excerpt(job),
		JobURL:        strings.TrimSpace(in.JobURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.matches.CreateMatch(ctx, rec); err != nil {
		return match.Record{}, ErrInternal
	}

	req := match.Request{
		MatchID:    rec.ID,
		UserID:     userID,
		ResumeText: resume,
		JobText:    job,
		JobURL:     rec.JobURL,
	}
	if err := u.queue.PublishRequest(ctx, req); err != nil {
		u.logger.Error("publish match request failed", zap.String(logger.FieldMatchID, rec.ID.String()), zap.Error(err))
		_ = u.matches.UpdateMatchStatus(ctx, rec.ID, match.StatusFailed, "could not be queued")
		return match.Record{}, ErrQueueUnavailable
	}
	return rec, nil
}

// Process runs one queued match and publishes each status change. When the
// record cannot be moved to processing on a first delivery the error wraps
// match.ErrRetryable; on a redelivery the match is marked failed instead.
func (u *Matching) Process(ctx context.Context, req match.Request) error {
	log := u.logger.With(zap.String(logger.FieldMatchID, req.MatchID.String()))

	fail := func(cause error) error {
		log.Warn("match failed", zap.Error(cause))
		if err := u.matches.UpdateMatchStatus(ctx, req.MatchID, match.StatusFailed, cause.Error()); err != nil {
			log.Error("mark match failed", zap.Error(err))
		}
		u.publish(ctx, req, match.StatusFailed, cause.Error(), nil)
		return cause
	}

	if err := u.matches.UpdateMatchStatus(ctx, req.MatchID, match.StatusProcessing, ""); err != nil {
		if errors.Is(err, match.ErrNotFound) {
			log.Warn("dropping request for unknown match")
			return nil
		}
		if !req.Redelivered {
			return fmt.Errorf("%w: mark processing: %w", match.ErrRetryable, err)
		}
		log.Error("mark processing failed on redelivery", zap.Error(err))
		return fail(ErrInternal)
	}
	u.publish(ctx, req, match.StatusProcessing, "analysis started", nil)

	job := req.JobText
	if strings.TrimSpace(job) == "" {
		text, err := u.fetchJob(ctx, req.JobURL)
		if err != nil {
			return fail(err)
		}
		job = text
	}

	a, err := u.analyze(ctx, req.ResumeText, job)
	if err != nil {
		return fail(err)
	}
	key, err := u.storeReport(ctx, req.MatchID, req.ResumeText, a)
	if err != nil {
		return fail(err)
	}
	if err := u.matches.CompleteMatch(ctx, req.MatchID, a, key); err != nil {
		u.dropReport(key)
		return fail(ErrInternal)
	}

	u.publish(ctx, req, match.StatusCompleted, "analysis completed", &a.Result)
	return nil
}

// PageLimit clamps a requested page size to [1, 100], defaulting to 20.
func PageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func (u *Matching) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]match.Record, int, error) {
	limit = PageLimit(limit)
	if page < 1 {
		page = 1
	}

	items, total, err := u.matches.ListUserMatches(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, ErrInternal
	}
	return items, total, nil
}

func (u *Matching) Get(ctx context.Context, userID, matchID uuid.UUID) (match.Record, error) {
	rec, err := u.matches.GetUserMatch(ctx, userID, matchID)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return match.Record{}, ErrMatchNotFound
		}
		return match.Record{}, ErrInternal
	}
	return rec, nil
}

func (u *Matching) Report(ctx context.Context, userID, matchID uuid.UUID) ([]byte, error) {
	rec, err := u.Get(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if rec.Status != match.StatusCompleted || rec.ReportKey == "" {
		return nil, ErrReportNotReady
	}

	b, err := u.store.Get(ctx, rec.ReportKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotReady
		}
		return nil, ErrInternal
	}
	return b, nil
}

// acquire reads the resume and the job description concurrently. With
// fetchJob false a job URL is only validated, not fetched.
func (u *Matching) acquire(ctx context.Context, in MatchInput, fetchJob bool) (string, string, error) {
	var resume, job string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := resumeText(in)
		resume = text
		return err
	})
	g.Go(func() error {
		job = strings.TrimSpace(in.JobText)
		if job != "" {
			return nil
		}
		if strings.TrimSpace(in.JobURL) == "" {
			return ErrMissingJob
		}
		if !fetchJob {
			if _, err := fetcher.ParseURL(in.JobURL); err != nil {
				return ErrInvalidJobURL
			}
			return nil
		}
		text, err := u.fetchJob(gctx, in.JobURL)
		job = text
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	if !utf8.ValidString(resume) || !utf8.ValidString(job) {
		return "", "", ErrMalformedText
	}
	return resume, job, nil
}

func resumeText(in MatchInput) (string, error) {
	if f := in.ResumeFile; f != nil && f.Name != "" {
		if !document.Allowed(f.Name) {
			return "", ErrUnsupportedFile
		}
		text, err := document.ExtractText(f.Name, f.ContentType, f.Data)
		switch {
		case errors.Is(err, document.ErrUnsupportedType):
			return "", ErrUnsupportedFile
		case err != nil:
			return "", ErrUnreadableFile
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrMissingResume
		}
		return text, nil
	}

	text := strings.TrimSpace(in.ResumeText)
	if text == "" {
		return "", ErrMissingResume
	}
	return text, nil
}

func (u *Matching) fetchJob(ctx context.Context, rawURL string) (string, error) {
	if u.fetcher == nil {
		return "", ErrJobFetchFailed
	}
	text, err := u.fetcher.FetchText(ctx, rawURL)
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidURL) {
			return "", ErrInvalidJobURL
		}
		u.logger.Info("job fetch failed", zap.String("url", logger.TruncateForLog(rawURL, 200)), zap.Error(err))
		return "", ErrJobFetchFailed
	}
	return text, nil
}

// analyze returns the cached analysis for the pair or computes and caches it.
func (u *Matching) analyze(ctx context.Context, resume, job string) (matching.Analysis, error) {
	key := cache.MatchKey(u.matcher.Vocabulary().Version(), u.matcher.Mode(), u.matcher.Weights(), resume, job)

	var a matching.Analysis
	if u.cache != nil {
		hit, err := u.cache.GetJSON(ctx, key, &a)
		if err != nil {
			u.logger.Debug("analysis cache read failed", zap.Error(err))
		}
		if hit {
			return a, nil
		}
	}

	a, err := u.matcher.Match(resume, job)
	if err != nil {
		if errors.Is(err, matching.ErrMalformedInput) {
			return matching.Analysis{}, ErrMalformedText
		}
		u.logger.Error("matching failed", zap.Error(err))
		return matching.Analysis{}, ErrMatchFailed
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, a, 0); err != nil {
			u.logger.Debug("analysis cache write failed", zap.Error(err))
		}
	}
	return a, nil
}

func (u *Matching) storeReport(ctx context.Context, id uuid.UUID, resume string, a matching.Analysis) (string, error) {
	var buf bytes.Buffer
	err := report.Generate(&buf, report.Input{
		ResumeText:  resume,
		Result:      a.Result,
		JDSkills:    a.JDSkills,
		GeneratedAt: u.now().UTC(),
	})
	if err != nil {
		u.logger.Error("report generation failed", zap.String(logger.FieldMatchID, id.String()), zap.Error(err))
		return "", ErrMatchFailed
	}

	key := storage.ReportKey(id.String())
	if err := u.store.Put(ctx, key, report.ContentType, buf.Bytes()); err != nil {
		u.logger.Error("report upload failed", zap.String(logger.FieldMatchID, id.String()), zap.Error(err))
		return "", ErrMatchFailed
	}
	return key, nil
}

// dropReport removes a stored report whose record could not be written. It
// runs detached from the request context, which may already be done.
func (u *Matching) dropReport(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := u.store.Delete(ctx, key); err != nil {
		u.logger.Warn("orphaned report not removed", zap.String("key", key), zap.Error(err))
	}
}

func (u *Matching) publish(ctx context.Context, req match.Request, status match.Status, msg string, res *matching.Result) {
	if u.queue == nil {
		return
	}
	err := u.queue.PublishUpdate(ctx, match.Update{
		MatchID:   req.MatchID,
		UserID:    req.UserID,
		Status:    status,
		Message:   msg,
		Result:    res,
		Timestamp: u.now().UTC(),
	})
	if err != nil {
		u.logger.Warn("publish update failed", zap.String(logger.FieldMatchID, req.MatchID.String()), zap.Error(err))
	}
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s...", string(r[:excerptRunes]))
}
