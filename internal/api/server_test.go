package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chirpd/internal/feed"
	"chirpd/internal/model"
	"chirpd/internal/ratelimit"
	"chirpd/internal/service"
	"chirpd/internal/store/postdb"
)

type fixedLimiter struct {
	dec ratelimit.Decision
}

func (f fixedLimiter) Check(ctx context.Context, key string) (ratelimit.Decision, error) {
	return f.dec, nil
}

type mapDirectory map[string]model.Profile

func (m mapDirectory) GetProfiles(ctx context.Context, ids []string) ([]model.Profile, error) {
	var out []model.Profile
	for _, id := range ids {
		if p, ok := m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *Server {
	t.Helper()
	db, err := postdb.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	dir := mapDirectory{
		"alice": {ID: "alice", Username: "alice", ProfileImageURL: "http://img/alice"},
	}
	svc := service.New(db, limiter, feed.NewAssembler(dir, 100), false)
	tokens := StaticTokens{"alice-token": "alice", "bob-token": "bob"}
	return NewServer(svc, tokens)
}

func doRequest(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateRequiresToken(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	rec := doRequest(s, http.MethodPost, "/api/posts", "", `{"content":"🙂"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
	rec = doRequest(s, http.MethodPost, "/api/posts", "unknown-token", `{"content":"🙂"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token status %d, want 401", rec.Code)
	}
}

func TestCreateAndFetch(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	rec := doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"🙂🎉"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var p model.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Content != "🙂🎉" || p.AuthorID != "alice" {
		t.Fatalf("bad post %+v", p)
	}

	rec = doRequest(s, http.MethodGet, "/api/posts/"+p.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	var ep model.EnrichedPost
	if err := json.Unmarshal(rec.Body.Bytes(), &ep); err != nil {
		t.Fatal(err)
	}
	if ep.Author.Username != "alice" {
		t.Fatalf("author %q, want alice", ep.Author.Username)
	}
}

func TestCreateValidationBody(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	rec := doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"not emoji"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var body struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.FieldErrors["content"]) == 0 {
		t.Fatalf("missing content field errors: %s", rec.Body.String())
	}
}

func TestCreateRateLimitedResponse(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{RetryAfter: 30 * time.Second}})
	rec := doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"🙂"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "30" {
		t.Fatalf("Retry-After %q, want 30", ra)
	}
}

func TestDeleteOwnershipAndIdempotence(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	rec := doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"🙂"}`)
	var p model.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}

	if rec := doRequest(s, http.MethodDelete, "/api/posts/"+p.ID, "bob-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete status %d, want 403", rec.Code)
	}
	if rec := doRequest(s, http.MethodDelete, "/api/posts/"+p.ID, "alice-token", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d, want 204", rec.Code)
	}
	if rec := doRequest(s, http.MethodDelete, "/api/posts/"+p.ID, "alice-token", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status %d, want 404", rec.Code)
	}
}

func TestGetMissingPost(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	if rec := doRequest(s, http.MethodGet, "/api/posts/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestListAllPublic(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	for i := 0; i < 3; i++ {
		doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"🙂"}`)
	}
	rec := doRequest(s, http.MethodGet, "/api/posts?limit=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out []model.EnrichedPost
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d posts, want limit 2", len(out))
	}
	for _, ep := range out {
		if ep.Author.Username == "" {
			t.Fatalf("unenriched post %s", ep.Post.ID)
		}
	}
}

func TestListByAuthorRoute(t *testing.T) {
	s := newTestServer(t, fixedLimiter{ratelimit.Decision{Allowed: true}})
	doRequest(s, http.MethodPost, "/api/posts", "alice-token", `{"content":"🙂"}`)
	doRequest(s, http.MethodPost, "/api/posts", "bob-token", `{"content":"🎉"}`)
	rec := doRequest(s, http.MethodGet, "/api/users/alice/posts", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out []model.EnrichedPost
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Post.AuthorID != "alice" {
		t.Fatalf("bad author feed: %+v", out)
	}
}
