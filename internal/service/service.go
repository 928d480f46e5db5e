package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chirpd/internal/apperr"
	"chirpd/internal/emoji"
	"chirpd/internal/feed"
	"chirpd/internal/logging"
	"chirpd/internal/metrics"
	"chirpd/internal/model"
	"chirpd/internal/ratelimit"
	"chirpd/internal/store/postdb"
)

// DefaultLimit bounds list operations when the caller asks for no
// particular limit.
const DefaultLimit = 100

// Service orchestrates post writes and feed reads: validation, then
// authorization, then rate limiting, then the store, with enrichment
// delegated to the assembler. The principal is always an explicit
// argument, never ambient state.
type Service struct {
	store    *postdb.DB
	limiter  ratelimit.Limiter
	feed     *feed.Assembler
	failOpen bool
	now      func() time.Time
	newID    func() string
}

func New(store *postdb.DB, limiter ratelimit.Limiter, assembler *feed.Assembler, failOpen bool) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		feed:     assembler,
		failOpen: failOpen,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create validates, rate-limits, and stores a new post by authorID.
// Nothing is written when validation or the limiter rejects.
func (s *Service) Create(ctx context.Context, authorID, content string) (model.Post, error) {
	if authorID == "" {
		metrics.IncCreateRejected("unauthorized")
		return model.Post{}, apperr.Unauthorized("missing principal")
	}
	if err := validateContent(content); err != nil {
		metrics.IncCreateRejected("validation")
		return model.Post{}, err
	}
	dec, err := s.limiter.Check(ctx, authorID)
	switch {
	case err != nil && s.failOpen:
		logging.Error("rate_limiter_unavailable", map[string]any{"error": err.Error(), "policy": "fail_open"})
	case err != nil:
		metrics.IncCreateRejected("limiter_unavailable")
		return model.Post{}, apperr.UpstreamUnavailable(fmt.Errorf("rate limiter: %w", err))
	case !dec.Allowed:
		metrics.IncCreateRejected("rate_limited")
		return model.Post{}, apperr.RateLimited(dec.RetryAfter)
	}
	p := model.Post{
		ID:        s.newID(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return model.Post{}, fmt.Errorf("insert post: %w", err)
	}
	metrics.PostsCreated.Inc()
	logging.Info("post_created", map[string]any{"post_id": p.ID, "author_id": authorID})
	return p, nil
}

// Delete removes a post. Only the post's author may delete it; the
// delete is hard and unconditional once authorized.
func (s *Service) Delete(ctx context.Context, requesterID, postID string) error {
	if requesterID == "" {
		return apperr.Unauthorized("missing principal")
	}
	p, err := s.store.GetByID(ctx, postID)
	if errors.Is(err, postdb.ErrNotFound) {
		return apperr.NotFound("post " + postID)
	}
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	if p.AuthorID != requesterID {
		return apperr.Forbidden("post belongs to another author")
	}
	if err := s.store.Delete(ctx, postID); err != nil {
		if errors.Is(err, postdb.ErrNotFound) {
			return apperr.NotFound("post " + postID)
		}
		return fmt.Errorf("delete post: %w", err)
	}
	metrics.PostsDeleted.Inc()
	logging.Info("post_deleted", map[string]any{"post_id": postID, "author_id": requesterID})
	return nil
}

// GetByID returns one enriched post.
func (s *Service) GetByID(ctx context.Context, postID string) (model.EnrichedPost, error) {
	p, err := s.store.GetByID(ctx, postID)
	if errors.Is(err, postdb.ErrNotFound) {
		return model.EnrichedPost{}, apperr.NotFound("post " + postID)
	}
	if err != nil {
		return model.EnrichedPost{}, fmt.Errorf("load post: %w", err)
	}
	return s.feed.AssembleOne(ctx, p)
}

// ListAll returns the newest posts, enriched, newest first. limit<=0
// means DefaultLimit.
func (s *Service) ListAll(ctx context.Context, limit int) ([]model.EnrichedPost, error) {
	metrics.FeedRequests.Inc()
	posts, err := s.store.ListAll(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.feed.Assemble(ctx, posts)
}

// ListByAuthor is ListAll filtered to one author.
func (s *Service) ListByAuthor(ctx context.Context, authorID string, limit int) ([]model.EnrichedPost, error) {
	metrics.FeedRequests.Inc()
	posts, err := s.store.ListByAuthor(ctx, authorID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return s.feed.Assemble(ctx, posts)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

func validateContent(content string) error {
	n := emoji.Length(content)
	if n < 1 {
		return apperr.Validation("content", "content must not be empty")
	}
	if n > emoji.MaxLength {
		return apperr.Validation("content", fmt.Sprintf("content must be at most %d characters", emoji.MaxLength))
	}
	if !emoji.Only(content) {
		return apperr.Validation("content", "only emoji are allowed")
	}
	return nil
}
