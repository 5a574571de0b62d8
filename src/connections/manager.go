// Package connections implements the connection-request lifecycle between
// members and the member-centric views derived from it.
//
// The Manager is the only writer of request status. The Resolver is read-only.
// Both work against a Store whose writes are single conditional operations, so
// concurrent commands for the same pair or the same request need no extra lock.
package connections

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/theleywin/talentnest-connections/src/models"
)

// Manager validates and executes connection-request transitions.
type Manager struct {
	store Store
	now   func() time.Time
	newID func(time.Time) (string, error)
}

// Option configures the Manager.
type Option func(*Manager) error

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now == nil {
			return ErrInvalidOperation
		}
		m.now = now
		return nil
	}
}

// WithIDGenerator sets the request id generator.
func WithIDGenerator(gen func(time.Time) (string, error)) Option {
	return func(m *Manager) error {
		if gen == nil {
			return ErrInvalidOperation
		}
		m.newID = gen
		return nil
	}
}

func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("connections: nil store")
	}
	m := &Manager{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newULID,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SendRequest creates a pending request from requesterID to targetID.
// Any existing record for the pair, in either direction and any status,
// blocks the request with ErrAlreadyExists.
func (m *Manager) SendRequest(ctx context.Context, requesterID, targetID string) (models.ConnectionRequest, error) {
	if err := ctx.Err(); err != nil {
		return models.ConnectionRequest{}, err
	}
	requesterID = strings.TrimSpace(requesterID)
	targetID = strings.TrimSpace(targetID)
	if requesterID == "" || targetID == "" {
		return models.ConnectionRequest{}, fmt.Errorf("%w: member id is required", ErrInvalidOperation)
	}
	if requesterID == targetID {
		return models.ConnectionRequest{}, fmt.Errorf("%w: cannot connect to yourself", ErrInvalidOperation)
	}

	if _, found, err := m.store.FindByPair(ctx, requesterID, targetID); err != nil {
		return models.ConnectionRequest{}, err
	} else if found {
		return models.ConnectionRequest{}, ErrAlreadyExists
	}

	now := m.now()
	id, err := m.newID(now)
	if err != nil {
		return models.ConnectionRequest{}, fmt.Errorf("generate request id: %w", err)
	}
	rec := models.ConnectionRequest{
		ID:          id,
		RequesterID: requesterID,
		TargetID:    targetID,
		PairKey:     models.PairKey(requesterID, targetID),
		Status:      models.ConnectionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The pre-check above is only a fast path; the insert decides.
	if err := m.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrConflict) {
			return models.ConnectionRequest{}, ErrAlreadyExists
		}
		return models.ConnectionRequest{}, err
	}
	return rec, nil
}

// RespondToRequest moves a pending request to accepted or rejected.
// Only the target may respond. A request that is no longer pending, including
// one resolved by a concurrent response, yields ErrNotFound.
func (m *Manager) RespondToRequest(ctx context.Context, responderID, requestID string, decision models.Decision) (models.ConnectionRequest, error) {
	if err := ctx.Err(); err != nil {
		return models.ConnectionRequest{}, err
	}
	next, ok := decision.Status()
	if !ok {
		return models.ConnectionRequest{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidOperation, decision)
	}

	rec, err := m.store.FindByID(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return models.ConnectionRequest{}, err
	}
	if rec.TargetID != responderID {
		return models.ConnectionRequest{}, ErrForbidden
	}
	if rec.Status != models.ConnectionStatusPending {
		return models.ConnectionRequest{}, ErrNotFound
	}

	rec.Status = next
	rec.UpdatedAt = m.now()
	if err := m.store.Update(ctx, rec, models.ConnectionStatusPending); err != nil {
		return models.ConnectionRequest{}, err
	}
	return rec, nil
}

func newULID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
