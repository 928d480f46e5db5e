package directory

import (
	"context"

	"chirpd/internal/model"
)

// Directory looks up profile summaries for a batch of user ids. Ids
// with no directory record are simply absent from the result; the
// result carries no ordering guarantee. Callers deduplicate ids.
type Directory interface {
	GetProfiles(ctx context.Context, ids []string) ([]model.Profile, error)
}
