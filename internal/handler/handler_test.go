package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tawjihai/tawjih/internal/assessment"
	"github.com/tawjihai/tawjih/internal/counselor"
	"github.com/tawjihai/tawjih/internal/dashboard"
	"github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/matching"
	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

func init() {
	store.PasswordCost = bcrypt.MinCost
}

type testServer struct {
	*httptest.Server
	store *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatal(err)
	}

	now := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	s := store.New(store.WithClock(now))
	if err := s.Seed(); err != nil {
		t.Fatal(err)
	}
	rng := model.LockedRand(rand.New(rand.NewPCG(1, 2)))
	svc := Services{
		Assessment: assessment.New(s, rng, now),
		Matching:   matching.New(s, rng, now),
		Dashboard:  dashboard.New(s, rng, now),
		Counselor:  counselor.NewService(s, counselor.NewKeywordResponder(), counselor.NewRandomResponder(rng)),
	}
	h, err := New(s, svc, model.AppConfig{SessionKey: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: s}
}

// client returns an HTTP client with its own cookie jar.
func (ts *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (ts *testServer) login(t *testing.T, username, password string) *http.Client {
	t.Helper()
	c := ts.client(t)
	resp := do(t, c, http.MethodPost, ts.URL+"/api/auth/login", map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	return c
}

func do(t *testing.T, c *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts.client(t), http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp := do(t, c, http.MethodPost, ts.URL+"/api/auth/register", map[string]string{
		"username": "salma",
		"password": "secret1",
		"fullName": "Salma Idrissi",
		"language": "fr",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	user := decodeBody[map[string]any](t, resp)
	if user["role"] != "student" {
		t.Errorf("expected default role student, got %v", user["role"])
	}
	if _, ok := user["passwordHash"]; ok {
		t.Error("password hash must not be serialized")
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/user/current", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current user after register: expected 200, got %d", resp.StatusCode)
	}
	if got := decodeBody[model.User](t, resp); got.Username != "salma" || got.Language != "fr" {
		t.Errorf("unexpected current user %+v", got)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp = do(t, c, http.MethodGet, ts.URL+"/api/user/current", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("after logout: expected 401, got %d", resp.StatusCode)
	}

	ts.login(t, "salma", "secret1")
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "demo", "nope"},
		{"unknown user", "ghost", "demo123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts.client(t), http.MethodPost, ts.URL+"/api/auth/login",
				map[string]string{"username": tt.username, "password": tt.password})
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts.client(t), http.MethodPost, ts.URL+"/api/auth/register", map[string]string{
		"username": "ab",
		"password": "secret1",
		"role":     "admin",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[messageResponse](t, resp)
	for _, field := range []string{"username", "fullName", "role"} {
		if body.Errors[field] == "" {
			t.Errorf("expected error for field %q, got %v", field, body.Errors)
		}
	}
	if _, ok := body.Errors["password"]; ok {
		t.Errorf("unexpected error for valid password: %v", body.Errors)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, ts.client(t), http.MethodPost, ts.URL+"/api/auth/register", map[string]string{
		"username": "demo",
		"password": "another1",
		"fullName": "Someone Else",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestMalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/login", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	paths := []string{
		"/api/user/current",
		"/api/user/quizzes",
		"/api/user/careers",
		"/api/user/career-matches",
		"/api/ai/conversations",
		"/api/teacher/dashboard",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			resp := do(t, c, http.MethodGet, ts.URL+p, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestTeacherRoutesRejectStudents(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "demo", "demo123")
	for _, p := range []string{"/api/teacher/dashboard", "/api/teacher/catalog"} {
		resp := do(t, c, http.MethodGet, ts.URL+p, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", p, resp.StatusCode)
		}
	}
}

func TestTeacherDashboard(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "teacher", "teacher123")

	resp := do(t, c, http.MethodGet, ts.URL+"/api/teacher/dashboard?class=2A", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	d := decodeBody[dashboard.Dashboard](t, resp)
	if d.ClassStats.TotalStudents != 1 {
		t.Errorf("expected 1 student, got %d", d.ClassStats.TotalStudents)
	}
	if len(d.Students) != 1 || d.Students[0].FullName != "Amal Benkada" {
		t.Errorf("unexpected students %+v", d.Students)
	}
}

func TestQuizAnswerFlow(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "teacher", "teacher123")

	resp := do(t, c, http.MethodGet, ts.URL+"/api/quizzes", nil)
	if quizzes := decodeBody[[]model.Quiz](t, resp); len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(quizzes))
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/quizzes/1/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	started := decodeBody[model.UserQuiz](t, resp)
	if started.Progress != 0 || started.Completed {
		t.Errorf("unexpected new attempt %+v", started)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/quizzes/1/answers",
		map[string]any{"questionId": 1, "answer": "4"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", resp.StatusCode)
	}
	uq := decodeBody[model.UserQuiz](t, resp)
	if uq.ID != started.ID {
		t.Errorf("answer created a new attempt %d, want %d", uq.ID, started.ID)
	}
	if want := assessment.Progress(1, 15); uq.Progress != want {
		t.Errorf("expected progress %d, got %d", want, uq.Progress)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/quizzes/1/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp.StatusCode)
	}
	done := decodeBody[model.UserQuiz](t, resp)
	if !done.Completed || done.Progress != 100 || done.CompletedAt == nil {
		t.Errorf("unexpected completed attempt %+v", done)
	}
	if len(done.Results.Traits) != 3 {
		t.Errorf("expected 3 traits, got %v", done.Results.Traits)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/user/career-matches", nil)
	if matches := decodeBody[map[string]int](t, resp); len(matches) != 3 {
		t.Errorf("expected matches for all 3 careers after completion, got %v", matches)
	}
}

func TestAnswerValidationAndMissingQuiz(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "demo", "demo123")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing answer", "/api/user/quizzes/1/answers", map[string]any{"questionId": 1}, http.StatusBadRequest},
		{"unknown quiz", "/api/user/quizzes/99/answers", map[string]any{"questionId": 1, "answer": "1"}, http.StatusNotFound},
		{"malformed id", "/api/user/quizzes/abc/answers", map[string]any{"questionId": 1, "answer": "1"}, http.StatusNotFound},
		{"complete without attempt", "/api/user/quizzes/99/complete", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, c, http.MethodPost, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRecommendedCareers(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts.client(t), http.MethodGet, ts.URL+"/api/careers/recommended", nil)
	if anon := decodeBody[[]map[string]any](t, resp); len(anon) != 3 {
		t.Fatalf("expected 3 careers for anonymous user, got %d", len(anon))
	} else if _, ok := anon[0]["matchPercentage"]; ok {
		t.Error("anonymous list should not carry match percentages")
	}

	c := ts.login(t, "teacher", "teacher123")
	// One match only; the others display the default.
	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/careers/2/favorite", map[string]bool{"isFavorite": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("favorite: expected 200, got %d", resp.StatusCode)
	}
	fav := decodeBody[model.UserCareer](t, resp)
	if !fav.IsFavorite || fav.MatchPercentage < 70 || fav.MatchPercentage > 99 {
		t.Errorf("unexpected favorite %+v", fav)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/careers/recommended", nil)
	recs := decodeBody[[]recommendedCareer](t, resp)
	if len(recs) != 3 {
		t.Fatalf("expected 3 careers, got %d", len(recs))
	}
	if recs[0].ID != 2 || recs[0].MatchPercentage != fav.MatchPercentage {
		t.Errorf("expected matched career first, got %+v", recs[0])
	}
	for _, rc := range recs[1:] {
		if rc.MatchPercentage != matching.DisplayDefault {
			t.Errorf("career %d: expected default %d, got %d", rc.ID, matching.DisplayDefault, rc.MatchPercentage)
		}
	}
}

func TestFavoriteAndView(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "demo", "demo123")

	resp := do(t, c, http.MethodPost, ts.URL+"/api/user/careers/1/favorite", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing isFavorite: expected 400, got %d", resp.StatusCode)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/careers/1/favorite", map[string]bool{"isFavorite": false})
	if uc := decodeBody[model.UserCareer](t, resp); uc.IsFavorite || uc.MatchPercentage != 95 {
		t.Errorf("unexpected career after unfavorite %+v", uc)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/careers/3/view", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view: expected 200, got %d", resp.StatusCode)
	}
	if got := decodeBody[map[string]bool](t, resp); !got["success"] {
		t.Errorf("expected success, got %v", got)
	}
	uc, err := ts.store.GetUserCareer(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if uc.ViewedAt.IsZero() {
		t.Error("expected viewedAt to be set")
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/user/careers/42/view", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown career: expected 404, got %d", resp.StatusCode)
	}
}

func TestAIMessage(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts.client(t), http.MethodPost, ts.URL+"/api/ai/message", map[string]string{"content": "software"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", resp.StatusCode)
	}
	if msg := decodeBody[messageResponse](t, resp); msg.Message == "" {
		t.Error("expected a reply")
	}

	c := ts.login(t, "teacher", "teacher123")
	resp = do(t, c, http.MethodPost, ts.URL+"/api/ai/message", map[string]string{"content": "Tell me about programming"})
	if msg := decodeBody[messageResponse](t, resp); msg.Message != counselor.ReplySoftware.Text {
		t.Errorf("expected software reply, got %q", msg.Message)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/ai/conversations", nil)
	convs := decodeBody[[]model.AiConversation](t, resp)
	if len(convs) != 1 || len(convs[0].Messages) != 2 {
		t.Errorf("expected one conversation with 2 messages, got %+v", convs)
	}

	resp = do(t, c, http.MethodPost, ts.URL+"/api/ai/message", map[string]string{"content": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty content: expected 400, got %d", resp.StatusCode)
	}
}

func TestLanguageSelection(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp := do(t, c, http.MethodGet, ts.URL+"/api/quizzes/99?language=fr", nil)
	fr := decodeBody[messageResponse](t, resp)
	resp = do(t, c, http.MethodGet, ts.URL+"/api/quizzes/99", nil)
	en := decodeBody[messageResponse](t, resp)
	if fr.Message == "" || fr.Message == en.Message {
		t.Errorf("expected distinct French message, got %q and %q", fr.Message, en.Message)
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/quizzes?language=fr", nil)
	if quizzes := decodeBody[[]model.Quiz](t, resp); len(quizzes) != 0 {
		t.Errorf("expected no French quizzes in the sample catalog, got %d", len(quizzes))
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts.client(t), http.MethodGet, ts.URL+"/api/quizzes?language=de", nil)
	if quizzes := decodeBody[[]model.Quiz](t, resp); len(quizzes) != 2 {
		t.Errorf("expected unsupported language to fall back to the default catalog, got %d quizzes", len(quizzes))
	}

	resp = do(t, ts.client(t), http.MethodPost, ts.URL+"/api/auth/register", map[string]string{
		"username": "hans",
		"password": "secret1",
		"fullName": "Hans Muller",
		"language": "de",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("register: expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody[messageResponse](t, resp); !strings.Contains(body.Errors["language"], "en fr ar") {
		t.Errorf("expected supported languages in error, got %v", body.Errors)
	}

	c := ts.login(t, "demo", "demo123")
	tests := []struct {
		lang string
		want int
	}{
		{"de", http.StatusBadRequest},
		{"ar", http.StatusOK},
	}
	for _, tt := range tests {
		resp := do(t, c, http.MethodPost, ts.URL+"/api/user/preferences", map[string]string{"language": tt.lang})
		if resp.StatusCode != tt.want {
			t.Errorf("preferences %s: expected %d, got %d", tt.lang, tt.want, resp.StatusCode)
		}
	}
}

func TestCatalogUploadAndExport(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "teacher", "teacher123")

	catalog := `{"quizzes":[{"title":"Valeurs","type":"personality","totalQuestions":1,"language":"fr",` +
		`"questions":[{"text":"J'aime aider les autres.","order":1,"language":"fr"}]}],` +
		`"careers":[{"title":"Infirmier","language":"fr"}]}`

	upload := func() (*http.Response, store.ImportResult) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("catalog_file", "fr.json")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(catalog)); err != nil {
			t.Fatal(err)
		}
		if err := mw.Close(); err != nil {
			t.Fatal(err)
		}
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/teacher/catalog", &buf)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := c.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp, decodeBody[store.ImportResult](t, resp)
	}

	resp, res := upload()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.StatusCode)
	}
	if res.Quizzes != 1 || res.Careers != 1 || res.Duplicate {
		t.Errorf("unexpected import result %+v", res)
	}
	if _, res = upload(); !res.Duplicate {
		t.Error("expected second upload to be reported as duplicate")
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/careers?language=fr", nil)
	if careers := decodeBody[[]model.Career](t, resp); len(careers) != 1 {
		t.Errorf("expected 1 French career, got %d", len(careers))
	}

	resp = do(t, c, http.MethodGet, ts.URL+"/api/teacher/catalog", nil)
	export := decodeBody[model.CatalogExport](t, resp)
	if export.ExportedAt == nil || len(export.Quizzes) != 3 || len(export.Careers) != 4 {
		t.Errorf("unexpected export: %d quizzes, %d careers", len(export.Quizzes), len(export.Careers))
	}
}

func TestCatalogUploadRejectsBadFile(t *testing.T) {
	ts := newTestServer(t)
	c := ts.login(t, "teacher", "teacher123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("catalog_file", "broken.json")
	fw.Write([]byte("not json"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/teacher/catalog", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
