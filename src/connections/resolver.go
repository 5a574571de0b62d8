package connections

import (
	"context"
	"errors"
	"fmt"

	"github.com/theleywin/talentnest-connections/src/models"
)

// Relation is a request seen from one member's side.
type Relation struct {
	Request       models.ConnectionRequest `json:"request"`
	CounterpartID string                   `json:"counterpart"`
	Side          models.Side              `json:"side"`
}

// Resolver answers member-centric questions over the directed request set.
type Resolver struct {
	store Store
}

func NewResolver(store Store) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("connections: nil store")
	}
	return &Resolver{store: store}, nil
}

// StatusBetween returns the relation between self and other as seen by self.
func (r *Resolver) StatusBetween(ctx context.Context, self, other string) (models.RelationStatus, error) {
	if self == other {
		return "", fmt.Errorf("%w: cannot check status with yourself", ErrInvalidOperation)
	}
	rec, found, err := r.store.FindByPair(ctx, self, other)
	if err != nil {
		return "", err
	}
	if !found {
		return models.RelationNone, nil
	}

	switch rec.Status {
	case models.ConnectionStatusAccepted:
		return models.RelationConnected, nil
	case models.ConnectionStatusRejected:
		return models.RelationDeclined, nil
	}
	if rec.RequesterID == self {
		return models.RelationPendingOutgoing, nil
	}
	return models.RelationPendingIncoming, nil
}

// FindBetween returns the record for the pair, if any.
func (r *Resolver) FindBetween(ctx context.Context, self, other string) (models.ConnectionRequest, bool, error) {
	return r.store.FindByPair(ctx, self, other)
}

// ListNetwork returns accepted requests touching self.
func (r *Resolver) ListNetwork(ctx context.Context, self string) ([]Relation, error) {
	return r.collect(ctx, self, func(rec models.ConnectionRequest) bool {
		return rec.Status == models.ConnectionStatusAccepted
	})
}

// ListIncomingPending returns pending requests addressed to self.
func (r *Resolver) ListIncomingPending(ctx context.Context, self string) ([]Relation, error) {
	return r.collect(ctx, self, func(rec models.ConnectionRequest) bool {
		return rec.TargetID == self && rec.Status == models.ConnectionStatusPending
	})
}

// ListOutgoingPending returns pending requests sent by self.
func (r *Resolver) ListOutgoingPending(ctx context.Context, self string) ([]Relation, error) {
	return r.collect(ctx, self, func(rec models.ConnectionRequest) bool {
		return rec.RequesterID == self && rec.Status == models.ConnectionStatusPending
	})
}

// ListAllTouching returns every request touching self in any status.
func (r *Resolver) ListAllTouching(ctx context.Context, self string) ([]Relation, error) {
	return r.collect(ctx, self, func(models.ConnectionRequest) bool { return true })
}

func (r *Resolver) collect(ctx context.Context, self string, keep func(models.ConnectionRequest) bool) ([]Relation, error) {
	out := make([]Relation, 0)
	for rec, err := range r.store.FindByParticipant(ctx, self) {
		if err != nil {
			return nil, err
		}
		if !keep(rec) {
			continue
		}
		side := models.SideTarget
		if rec.RequesterID == self {
			side = models.SideRequester
		}
		out = append(out, Relation{
			Request:       rec,
			CounterpartID: rec.Counterpart(self),
			Side:          side,
		})
	}
	return out, nil
}
