package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skillmatch/internal/delivery/http/middleware"
	"skillmatch/internal/domain/match"
	"skillmatch/internal/domain/matching"
	"skillmatch/internal/domain/user"
	"skillmatch/internal/pkg/response"
	"skillmatch/internal/usecase"
	ucauth "skillmatch/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type stubMatching struct {
	got     usecase.MatchInput
	err     error
	rec     match.Record
	report  []byte
	page    int
	limit   int
	records []match.Record
}

func (s *stubMatching) Create(_ context.Context, userID uuid.UUID, in usecase.MatchInput) (match.Record, error) {
	s.got = in
	if s.err != nil {
		return match.Record{}, s.err
	}
	rec := s.rec
	rec.UserID = userID
	return rec, nil
}

func (s *stubMatching) CreateAsync(ctx context.Context, userID uuid.UUID, in usecase.MatchInput) (match.Record, error) {
	s.got = in
	if s.err != nil {
		return match.Record{}, s.err
	}
	return match.Record{ID: uuid.New(), UserID: userID, Status: match.StatusQueued}, nil
}

func (s *stubMatching) List(_ context.Context, _ uuid.UUID, page, limit int) ([]match.Record, int, error) {
	s.page, s.limit = page, limit
	return s.records, len(s.records), s.err
}

func (s *stubMatching) Get(_ context.Context, _ uuid.UUID, _ uuid.UUID) (match.Record, error) {
	return s.rec, s.err
}

func (s *stubMatching) Report(_ context.Context, _ uuid.UUID, _ uuid.UUID) ([]byte, error) {
	return s.report, s.err
}

func (s *stubMatching) Process(context.Context, match.Request) error { return nil }

func newApp(authenticated bool) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	if authenticated {
		app.Use(func(c fiber.Ctx) error {
			c.Locals(middleware.CtxUserIDKey, testUserID)
			return c.Next()
		})
	}
	return app
}

func newMatchApp(uc usecase.MatchingUsecase) *fiber.App {
	app := newApp(true)
	NewMatchHandler(uc, 1024, "http://localhost:8080").RegisterRoutes(app.Group("/matches"))
	return app
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func completedRecord() match.Record {
	return match.Record{
		ID:     uuid.New(),
		Status: match.StatusCompleted,
		Analysis: matching.Analysis{
			Result:       matching.Result{MatchScore: 42.5, MatchedSkills: []string{"python"}, MissingSkills: []string{"java"}},
			ResumeSkills: []string{"python"},
			JDSkills:     []string{"java", "python"},
		},
		ReportKey: "reports/a.pdf",
		CreatedAt: time.Now().UTC(),
	}
}

func TestMatchHandler_CreateJSON(t *testing.T) {
	uc := &stubMatching{rec: completedRecord()}
	app := newMatchApp(uc)

	resp, env := doJSON(t, app, fiber.MethodPost, "/matches", map[string]string{
		"resume_text": "I know Python",
		"job_text":    "Python and Java",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "I know Python", uc.got.ResumeText)
	assert.Nil(t, uc.got.ResumeFile)

	var data struct {
		Status    string `json:"status"`
		ReportURL string `json:"report_url"`
		Result    struct {
			MatchScore    float64  `json:"match_score"`
			MissingSkills []string `json:"missing_skills"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "completed", data.Status)
	assert.Equal(t, 42.5, data.Result.MatchScore)
	assert.Equal(t, []string{"java"}, data.Result.MissingSkills)
	assert.True(t, strings.HasPrefix(data.ReportURL, "http://localhost:8080/api/v1/matches/"))
}

func TestMatchHandler_CreateMultipartFile(t *testing.T) {
	uc := &stubMatching{rec: completedRecord()}
	app := newMatchApp(uc)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("job_text", "Need Go"))
	fw, err := w.CreateFormFile("resume_file", "cv.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Go developer"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/matches", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.NotNil(t, uc.got.ResumeFile)
	assert.Equal(t, "cv.txt", uc.got.ResumeFile.Name)
	assert.Equal(t, "Go developer", string(uc.got.ResumeFile.Data))
	assert.Equal(t, "Need Go", uc.got.JobText)
}

func TestMatchHandler_UploadTooLarge(t *testing.T) {
	app := newMatchApp(&stubMatching{rec: completedRecord()})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("resume_file", "cv.txt")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), 2048))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/matches", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestMatchHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{usecase.ErrMissingResume, fiber.StatusBadRequest, usecase.ErrMissingResume.Error()},
		{usecase.ErrUnsupportedFile, fiber.StatusBadRequest, usecase.ErrUnsupportedFile.Error()},
		{usecase.ErrInvalidJobURL, fiber.StatusBadRequest, usecase.ErrInvalidJobURL.Error()},
		{usecase.ErrMatchFailed, fiber.StatusInternalServerError, "Error during matching"},
		{errors.New("boom"), fiber.StatusInternalServerError, "Error during matching"},
		{usecase.ErrQueueUnavailable, fiber.StatusServiceUnavailable, "Async matching is not available"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newMatchApp(&stubMatching{err: tt.err})
			resp, env := doJSON(t, app, fiber.MethodPost, "/matches", map[string]string{"resume_text": "x"})
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, env.Message)
		})
	}
}

func TestMatchHandler_CreateAsync(t *testing.T) {
	app := newMatchApp(&stubMatching{})
	resp, env := doJSON(t, app, fiber.MethodPost, "/matches/async", map[string]string{
		"resume_text": "Go developer",
		"job_url":     "https://jobs.example/1",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"status":"queued"`)
}

func TestMatchHandler_ListPaging(t *testing.T) {
	uc := &stubMatching{records: []match.Record{completedRecord()}}
	app := newMatchApp(uc)

	resp, env := doJSON(t, app, fiber.MethodGet, "/matches?page=2&limit=500", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, uc.page)
	assert.Equal(t, 500, uc.limit)

	var data struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Page)
	assert.Equal(t, 100, data.Limit)
	assert.Equal(t, 1, data.Total)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/matches?page=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMatchHandler_GetAndReport(t *testing.T) {
	rec := completedRecord()
	app := newMatchApp(&stubMatching{rec: rec, report: []byte("%PDF-1.3 test")})

	resp, _ := doJSON(t, app, fiber.MethodGet, "/matches/"+rec.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/matches/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/matches/"+rec.ID.String()+"/report", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(body))

	notReady := newMatchApp(&stubMatching{err: usecase.ErrReportNotReady})
	resp, _ = doJSON(t, notReady, fiber.MethodGet, "/matches/"+rec.ID.String()+"/report", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestMatchHandler_Unauthenticated(t *testing.T) {
	app := newApp(false)
	NewMatchHandler(&stubMatching{}, 0, "").RegisterRoutes(app.Group("/matches"))

	resp, _ := doJSON(t, app, fiber.MethodPost, "/matches", map[string]string{"resume_text": "x"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

type stubAuth struct {
	register ucauth.RegisterInput
	login    ucauth.LoginInput
	err      error
}

func (s *stubAuth) Register(_ context.Context, in ucauth.RegisterInput) (user.User, usecase.Tokens, error) {
	s.register = in
	if s.err != nil {
		return user.User{}, usecase.Tokens{}, s.err
	}
	return user.User{ID: testUserID, Email: in.Email, Username: in.Username}, usecase.Tokens{AccessToken: "a", RefreshToken: "r"}, nil
}

func (s *stubAuth) Login(_ context.Context, in ucauth.LoginInput) (user.User, usecase.Tokens, error) {
	s.login = in
	if s.err != nil {
		return user.User{}, usecase.Tokens{}, s.err
	}
	return user.User{ID: testUserID}, usecase.Tokens{AccessToken: "a", RefreshToken: "r"}, nil
}

func (s *stubAuth) Refresh(context.Context, string) (usecase.Tokens, error) {
	return usecase.Tokens{AccessToken: "a2", RefreshToken: "r2"}, s.err
}

func validRegistration() map[string]any {
	return map[string]any{
		"email":       "ada@example.com",
		"username":    "ada",
		"password":    "correct-horse",
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"agree_terms": true,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	uc := &stubAuth{}
	app := newApp(false)
	NewAuthHandler(uc, 900).RegisterRoutes(app.Group("/auth"))

	resp, env := doJSON(t, app, fiber.MethodPost, "/auth/register", validRegistration())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ada", uc.register.Username)
	assert.Contains(t, string(env.Data), `"token_type":"Bearer"`)
	assert.Contains(t, string(env.Data), `"expires_in":900`)

	body := validRegistration()
	body["agree_terms"] = false
	body["email"] = "nope"
	resp, env = doJSON(t, app, fiber.MethodPost, "/auth/register", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &fields))
	assert.Equal(t, "required", fields["agree_terms"])
	assert.Equal(t, "email", fields["email"])
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	app := newApp(false)
	NewAuthHandler(&stubAuth{err: ucauth.ErrUsernameTaken}, 0).RegisterRoutes(app.Group("/auth"))

	resp, env := doJSON(t, app, fiber.MethodPost, "/auth/register", validRegistration())
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already taken", env.Message)
}

func TestAuthHandler_Login(t *testing.T) {
	uc := &stubAuth{}
	app := newApp(false)
	NewAuthHandler(uc, 0).RegisterRoutes(app.Group("/auth"))

	resp, _ := doJSON(t, app, fiber.MethodPost, "/auth/login", map[string]string{"username": "ada", "password": "pw"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada", uc.login.Login)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/auth/login", map[string]string{"password": "pw"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	bad := newApp(false)
	NewAuthHandler(&stubAuth{err: ucauth.ErrInvalidCredentials}, 0).RegisterRoutes(bad.Group("/auth"))
	resp, _ = doJSON(t, bad, fiber.MethodPost, "/auth/login", map[string]string{"email": "a@b.c", "password": "pw"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	app := newApp(false)
	NewHealthHandler(stubPinger{}, nil).RegisterRoutes(app)
	resp, env := doJSON(t, app, fiber.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, response.MessageOK, env.Message)
	assert.Contains(t, string(env.Data), `"cache":"disabled"`)

	down := newApp(false)
	NewHealthHandler(stubPinger{err: errors.New("down")}, stubPinger{}).RegisterRoutes(down)
	resp, env = doJSON(t, down, fiber.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"database":"down"`)
}
