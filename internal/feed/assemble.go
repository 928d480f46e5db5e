package feed

import (
	"context"

	"chirpd/internal/apperr"
	"chirpd/internal/directory"
	"chirpd/internal/model"
)

// DefaultBatchSize bounds how many ids go into one directory lookup.
const DefaultBatchSize = 100

// Assembler joins posts with their authors' directory profiles.
type Assembler struct {
	dir       directory.Directory
	batchSize int
}

func NewAssembler(dir directory.Directory, batchSize int) *Assembler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Assembler{dir: dir, batchSize: batchSize}
}

// Assemble pairs every post with its author's profile, preserving
// input order; output length equals input length. An author missing
// from the directory, or present without a username, gets the
// placeholder profile — the directory lags the post store at times and
// an authorless feed is not a supported state. A directory failure
// fails the whole request instead of degrading it.
func (a *Assembler) Assemble(ctx context.Context, posts []model.Post) ([]model.EnrichedPost, error) {
	authors, err := a.collectAuthors(ctx, posts)
	if err != nil {
		return nil, apperr.UpstreamUnavailable(err)
	}
	out := make([]model.EnrichedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok || author.Username == "" {
			author = model.PlaceholderProfile()
		}
		out = append(out, model.EnrichedPost{Post: p, Author: author})
	}
	return out, nil
}

// AssembleOne enriches a single post.
func (a *Assembler) AssembleOne(ctx context.Context, post model.Post) (model.EnrichedPost, error) {
	res, err := a.Assemble(ctx, []model.Post{post})
	if err != nil {
		return model.EnrichedPost{}, err
	}
	return res[0], nil
}

// collectAuthors maps distinct author ids to profiles using batched
// lookups, chunked by batchSize.
func (a *Assembler) collectAuthors(ctx context.Context, posts []model.Post) (map[string]model.Profile, error) {
	ids := make(map[string]struct{})
	for _, p := range posts {
		if p.AuthorID != "" {
			ids[p.AuthorID] = struct{}{}
		}
	}
	arr := make([]string, 0, len(ids))
	for id := range ids {
		arr = append(arr, id)
	}
	out := make(map[string]model.Profile, len(arr))
	for i := 0; i < len(arr); i += a.batchSize {
		end := i + a.batchSize
		if end > len(arr) {
			end = len(arr)
		}
		profiles, err := a.dir.GetProfiles(ctx, arr[i:end])
		if err != nil {
			return nil, err
		}
		for _, pr := range profiles {
			out[pr.ID] = pr
		}
	}
	return out, nil
}
