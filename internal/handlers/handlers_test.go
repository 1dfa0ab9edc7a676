package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhitfield/echojournal-backend/internal/analysis"
	"github.com/mwhitfield/echojournal-backend/internal/middleware"
	"github.com/mwhitfield/echojournal-backend/internal/models"
	"github.com/mwhitfield/echojournal-backend/internal/services"
	"github.com/mwhitfield/echojournal-backend/internal/store"
	"github.com/mwhitfield/echojournal-backend/pkg/utils"
)

type fakeAudio struct {
	uploads int
	removed []string
}

func (f *fakeAudio) UploadAudio(ctx context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	f.uploads++
	return fmt.Sprintf("https://cdn.test/upload/v1/%s/audio-%d.mp3", folder, f.uploads), nil
}

func (f *fakeAudio) RemoveBlob(ctx context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

type fakeAnalyses struct {
	byEntry map[string]*models.Analysis
}

func (f *fakeAnalyses) Upsert(ctx context.Context, a *models.Analysis) error {
	f.byEntry[a.EntryID] = a
	return nil
}

func (f *fakeAnalyses) Get(ctx context.Context, userID, entryID string) (*models.Analysis, error) {
	a, ok := f.byEntry[entryID]
	if !ok || a.UserID != userID {
		return nil, services.ErrAnalysisNotFound
	}
	return a, nil
}

func (f *fakeAnalyses) DeleteForEntry(ctx context.Context, entryID string) error {
	delete(f.byEntry, entryID)
	return nil
}

type testEnv struct {
	api    *API
	store  *store.MemoryStore
	audio  *fakeAudio
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hasher := utils.Argon2Hasher{}
	audio := &fakeAudio{}
	mem := store.NewMemoryStore(store.Options{
		Hasher:       hasher,
		Blobs:        audio,
		ShareBaseURL: "https://app.test",
	})
	tokens := services.NewTokenService("test-secret", time.Hour)
	api := &API{
		Entries:       mem,
		Shares:        mem,
		Users:         mem,
		Trends:        mem,
		Tokens:        tokens,
		Hasher:        hasher,
		Audio:         audio,
		Analyses:      &fakeAnalyses{byEntry: make(map[string]*models.Analysis)},
		Analyzer:      analysis.KeywordAnalyzer{},
		MaxAudioBytes: 1 << 20,
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", api.Signup)
		r.Post("/auth/signin", api.Signin)
		r.With(middleware.RequireOwner(tokens)).Get("/auth/me", api.Me)
		r.Get("/shared/{token}", api.RedeemShare)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner(tokens))
			r.Post("/entries", api.CreateEntry)
			r.Get("/entries", api.ListEntries)
			r.Get("/entries/{id}", api.GetEntry)
			r.Put("/entries/{id}", api.UpdateEntry)
			r.Delete("/entries/{id}", api.DeleteEntry)
			r.Post("/entries/{id}/share", api.ShareEntry)
			r.Delete("/entries/{id}/share", api.UnshareEntry)
			r.Post("/entries/{id}/analyze", api.AnalyzeEntry)
			r.Get("/entries/{id}/analysis", api.GetAnalysis)
			r.Get("/stats", api.Statistics)
			r.Get("/insights/moods", api.MoodTrend)
		})
	})

	return &testEnv{api: api, store: mem, audio: audio, router: r}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// signup creates an account through the API and returns its bearer token.
func (env *testEnv) signup(t *testing.T, username string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"password": "longenough1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %q: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("signup response: %v", err)
	}
	return resp.Token
}

func (env *testEnv) createEntry(t *testing.T, token, title string) uuid.UUID {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/entries", token, map[string]interface{}{
		"title":   title,
		"content": "content of " + title,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp entryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("create response: %v", err)
	}
	return resp.Entry.ID
}

func TestSignupAndSignin(t *testing.T) {
	env := newTestEnv(t)

	token := env.signup(t, "ada")

	rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}

	// Duplicate usernames conflict, case-insensitively.
	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ADA", "password": "longenough1",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup: status %d, want 409", rec.Code)
	}

	// Wrong password and unknown user answer identically.
	wrongPass := env.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"username": "ada", "password": "not-the-password",
	})
	noUser := env.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"username": "nobody", "password": "whatever1",
	})
	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Errorf("signin failures: %d and %d, want both 401", wrongPass.Code, noUser.Code)
	}
	if wrongPass.Body.String() != noUser.Body.String() {
		t.Errorf("signin failure bodies differ: %q vs %q", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ab", "password": "longenough1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short username: status %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "valid_name", "password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status %d, want 400", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/entries", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/entries", "garbage.token.here", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", rec.Code)
	}

	// A token signed with a different secret is rejected.
	foreign := services.NewTokenService("other-secret", time.Hour)
	forged, err := foreign.Issue(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if rec := env.do(t, http.MethodGet, "/api/entries", forged, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token: status %d, want 401", rec.Code)
	}
}

func TestEntryCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	id := env.createEntry(t, token, "first entry")

	rec := env.do(t, http.MethodGet, "/api/entries/"+id.String(), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/entries/"+id.String(), token, map[string]string{"mood": "happy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp entryResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Entry.Mood != "happy" || resp.Entry.Title != "first entry" {
		t.Errorf("updated entry = %+v", resp.Entry)
	}

	rec = env.do(t, http.MethodDelete, "/api/entries/"+id.String(), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/entries/"+id.String(), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestForeignEntryLooksMissing(t *testing.T) {
	env := newTestEnv(t)
	ada := env.signup(t, "ada")
	mallory := env.signup(t, "mallory")
	id := env.createEntry(t, ada, "private")

	missing := env.do(t, http.MethodGet, "/api/entries/"+uuid.NewString(), mallory, nil)
	foreign := env.do(t, http.MethodGet, "/api/entries/"+id.String(), mallory, nil)
	if foreign.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("statuses %d and %d, want both 404", foreign.Code, missing.Code)
	}
	if foreign.Body.String() != missing.Body.String() {
		t.Errorf("foreign and missing bodies differ: %q vs %q", foreign.Body.String(), missing.Body.String())
	}
}

func TestListDefaultsAndCaps(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	for i := 0; i < 12; i++ {
		env.createEntry(t, token, fmt.Sprintf("entry %02d", i))
	}

	rec := env.do(t, http.MethodGet, "/api/entries", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var resp entryListResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Entries) != 10 || resp.Total != 12 || resp.Pages != 2 || resp.Page != 1 {
		t.Errorf("default list: entries=%d total=%d pages=%d page=%d", len(resp.Entries), resp.Total, resp.Pages, resp.Page)
	}

	// An oversized limit is capped, not rejected.
	rec = env.do(t, http.MethodGet, "/api/entries?limit=9999", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list with big limit: status %d", rec.Code)
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 12 {
		t.Errorf("capped limit: total=%d, want 12", resp.Total)
	}
}

func TestListRejectsNonPositivePaging(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	env.createEntry(t, token, "only entry")

	for _, query := range []string{"page=0", "page=-3", "limit=0", "limit=-1"} {
		rec := env.do(t, http.MethodGet, "/api/entries?"+query, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("list with %s: status %d, want 400", query, rec.Code)
		}
	}
}

func TestShareRedeemRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	id := env.createEntry(t, token, "shared entry")

	rec := env.do(t, http.MethodPost, "/api/entries/"+id.String()+"/share", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp shareResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Share == nil || resp.Share.Token == "" {
		t.Fatalf("share response missing grant: %s", rec.Body.String())
	}

	// Anonymous redeem, no auth header.
	rec = env.do(t, http.MethodGet, "/api/shared/"+resp.Share.Token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: status %d body %s", rec.Code, rec.Body.String())
	}
	var shared sharedEntryResponse
	json.Unmarshal(rec.Body.Bytes(), &shared)
	if shared.Entry.Title != "shared entry" {
		t.Errorf("redeemed title = %q", shared.Entry.Title)
	}
	if !strings.Contains(rec.Body.String(), `"author"`) {
		t.Errorf("shared view missing author: %s", rec.Body.String())
	}

	// Revoke, then the token is dead.
	rec = env.do(t, http.MethodDelete, "/api/entries/"+id.String()+"/share", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unshare: status %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/shared/"+resp.Share.Token, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("redeem after revoke: status %d, want 404", rec.Code)
	}
}

func TestRedeemDoesNotLeakTokenExistence(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	id := env.createEntry(t, token, "locked entry")

	rec := env.do(t, http.MethodPost, "/api/entries/"+id.String()+"/share", token, map[string]string{
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("share: status %d", rec.Code)
	}
	var resp shareResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Share.PasswordProtected {
		t.Fatal("share not marked password protected")
	}

	// A wrong password on a real token and a bogus token must be
	// byte-identical responses.
	wrongPass := env.do(t, http.MethodGet, "/api/shared/"+resp.Share.Token+"?password=wrong", "", nil)
	bogus := env.do(t, http.MethodGet, "/api/shared/deadbeefdeadbeefdeadbeefdeadbeef", "", nil)
	if wrongPass.Code != bogus.Code {
		t.Errorf("statuses differ: %d vs %d", wrongPass.Code, bogus.Code)
	}
	if wrongPass.Body.String() != bogus.Body.String() {
		t.Errorf("bodies differ: %q vs %q", wrongPass.Body.String(), bogus.Body.String())
	}

	// The right password gets through.
	rec = env.do(t, http.MethodGet, "/api/shared/"+resp.Share.Token+"?password=s3cret-pass", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("correct password: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeEntry(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")

	rec := env.do(t, http.MethodPost, "/api/entries", token, map[string]interface{}{
		"title":   "a good day at work",
		"content": "I felt happy and excited about the project with my team",
	})
	var created entryResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	id := created.Entry.ID

	rec = env.do(t, http.MethodPost, "/api/entries/"+id.String()+"/analyze", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: status %d body %s", rec.Code, rec.Body.String())
	}
	var analyzed analysisResponse
	json.Unmarshal(rec.Body.Bytes(), &analyzed)
	if analyzed.Analysis == nil || analyzed.Analysis.Mood.PrimaryMood == "" {
		t.Fatalf("analysis missing mood: %s", rec.Body.String())
	}
	if analyzed.Entry.Mood != analyzed.Analysis.Mood.PrimaryMood {
		t.Errorf("entry mood %q not synced with analysis %q", analyzed.Entry.Mood, analyzed.Analysis.Mood.PrimaryMood)
	}

	rec = env.do(t, http.MethodGet, "/api/entries/"+id.String()+"/analysis", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get analysis: status %d", rec.Code)
	}

	// Another user cannot read the snapshot through the entry guard.
	mallory := env.signup(t, "mallory")
	rec = env.do(t, http.MethodGet, "/api/entries/"+id.String()+"/analysis", mallory, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign analysis read: status %d, want 404", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")
	env.createEntry(t, token, "one")
	env.createEntry(t, token, "two")

	rec := env.do(t, http.MethodGet, "/api/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp statsResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Stats.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", resp.Stats.TotalEntries)
	}
	if resp.Stats.CurrentStreak < 1 {
		t.Errorf("CurrentStreak = %d, want at least 1", resp.Stats.CurrentStreak)
	}
}

func TestMoodTrendValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ada")

	rec := env.do(t, http.MethodGet, "/api/insights/moods?from=not-a-date", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad from: status %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/insights/moods?from=2026-08-10&to=2026-08-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range: status %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/insights/moods", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("default range: status %d, want 200", rec.Code)
	}
}
