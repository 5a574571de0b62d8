package connections

import (
	"context"
	"iter"

	"github.com/theleywin/talentnest-connections/src/models"
)

// Store is the persistence boundary for connection requests.
//
// Insert and Update are each a single conditional write: Insert fails with
// ErrConflict when the unordered pair already has a record, and Update only
// applies when the stored status still equals expected, failing with
// ErrNotFound otherwise.
type Store interface {
	FindByID(ctx context.Context, id string) (models.ConnectionRequest, error)
	FindByPair(ctx context.Context, a, b string) (models.ConnectionRequest, bool, error)
	// FindByParticipant yields every record touching member, newest first.
	// Ranging over the sequence again re-runs the lookup.
	FindByParticipant(ctx context.Context, member string) iter.Seq2[models.ConnectionRequest, error]
	Insert(ctx context.Context, rec models.ConnectionRequest) error
	Update(ctx context.Context, rec models.ConnectionRequest, expected models.ConnectionStatus) error
}

func newer(a, b models.ConnectionRequest) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
