package connections

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talentnest-connections/src/models"
	"golang.org/x/sync/errgroup"
)

// stepClock advances one second per call so ordering is deterministic.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newTestManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := NewManager(store, WithClock(newStepClock().Now))
	require.NoError(t, err)
	return m
}

func TestSendRequest_CreatesPending(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)

	rec, err := m.SendRequest(context.Background(), "u1", "u2")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "u1", rec.RequesterID)
	assert.Equal(t, "u2", rec.TargetID)
	assert.Equal(t, models.ConnectionStatusPending, rec.Status)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.Equal(t, 1, store.Len())
}

func TestSendRequest_DuplicateAndReverseBlocked(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	_, err := m.SendRequest(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = m.SendRequest(ctx, "u1", "u2")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = m.SendRequest(ctx, "u2", "u1")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	assert.Equal(t, 1, store.Len())
}

func TestSendRequest_BlockedAfterTerminal(t *testing.T) {
	for _, decision := range []models.Decision{models.DecisionAccept, models.DecisionReject} {
		t.Run(string(decision), func(t *testing.T) {
			m := newTestManager(t, NewMemoryStore())
			ctx := context.Background()

			rec, err := m.SendRequest(ctx, "u1", "u2")
			require.NoError(t, err)
			_, err = m.RespondToRequest(ctx, "u2", rec.ID, decision)
			require.NoError(t, err)

			_, err = m.SendRequest(ctx, "u1", "u2")
			assert.ErrorIs(t, err, ErrAlreadyExists)
			_, err = m.SendRequest(ctx, "u2", "u1")
			assert.ErrorIs(t, err, ErrAlreadyExists)
		})
	}
}

func TestSendRequest_SelfAndBlank(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	_, err := m.SendRequest(ctx, "u1", "u1")
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = m.SendRequest(ctx, "", "u1")
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = m.SendRequest(ctx, "u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestSendRequest_ConcurrentSamePairOneWins(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)

	var ok, dup atomic.Int32
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		from, to := "a", "b"
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			_, err := m.SendRequest(context.Background(), from, to)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyExists):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 31, dup.Load())
	assert.Equal(t, 1, store.Len())
}

// conflictingStore reports no pair on lookup but conflicts on insert,
// which is what a request losing the insert race observes.
type conflictingStore struct {
	*MemoryStore
}

func (conflictingStore) FindByPair(context.Context, string, string) (models.ConnectionRequest, bool, error) {
	return models.ConnectionRequest{}, false, nil
}

func (conflictingStore) Insert(context.Context, models.ConnectionRequest) error {
	return ErrConflict
}

func TestSendRequest_InsertConflictMapsToAlreadyExists(t *testing.T) {
	m := newTestManager(t, conflictingStore{NewMemoryStore()})

	_, err := m.SendRequest(context.Background(), "u1", "u2")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRespondToRequest_AcceptAndReject(t *testing.T) {
	cases := []struct {
		decision models.Decision
		want     models.ConnectionStatus
	}{
		{models.DecisionAccept, models.ConnectionStatusAccepted},
		{models.DecisionReject, models.ConnectionStatusRejected},
	}
	for _, tc := range cases {
		t.Run(string(tc.decision), func(t *testing.T) {
			store := NewMemoryStore()
			m := newTestManager(t, store)
			ctx := context.Background()

			sent, err := m.SendRequest(ctx, "u1", "u2")
			require.NoError(t, err)

			got, err := m.RespondToRequest(ctx, "u2", sent.ID, tc.decision)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Status)
			assert.True(t, got.UpdatedAt.After(sent.UpdatedAt))

			stored, err := store.FindByID(ctx, sent.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stored.Status)
			assert.Equal(t, sent.CreatedAt, stored.CreatedAt)
		})
	}
}

func TestRespondToRequest_Errors(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	sent, err := m.SendRequest(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = m.RespondToRequest(ctx, "u2", "missing", models.DecisionAccept)
	assert.ErrorIs(t, err, ErrNotFound)

	// The requester cannot answer their own request.
	_, err = m.RespondToRequest(ctx, "u1", sent.ID, models.DecisionAccept)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.RespondToRequest(ctx, "u3", sent.ID, models.DecisionReject)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.RespondToRequest(ctx, "u2", sent.ID, models.Decision("maybe"))
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRespondToRequest_TerminalIsFinal(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	sent, err := m.SendRequest(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = m.RespondToRequest(ctx, "u2", sent.ID, models.DecisionAccept)
	require.NoError(t, err)

	for _, d := range []models.Decision{models.DecisionAccept, models.DecisionReject} {
		_, err = m.RespondToRequest(ctx, "u2", sent.ID, d)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestRespondToRequest_NonTargetOnResolvedRequest(t *testing.T) {
	for _, decision := range []models.Decision{models.DecisionAccept, models.DecisionReject} {
		t.Run(string(decision), func(t *testing.T) {
			m := newTestManager(t, NewMemoryStore())
			ctx := context.Background()

			sent, err := m.SendRequest(ctx, "u1", "u2")
			require.NoError(t, err)
			_, err = m.RespondToRequest(ctx, "u2", sent.ID, decision)
			require.NoError(t, err)

			// Authorization is checked before the pending state
			for _, responder := range []string{"u1", "u3"} {
				_, err = m.RespondToRequest(ctx, responder, sent.ID, models.DecisionAccept)
				assert.ErrorIs(t, err, ErrForbidden)
			}
			_, err = m.RespondToRequest(ctx, "u2", sent.ID, models.DecisionAccept)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRespondToRequest_RaceOneWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round-%d", round), func(t *testing.T) {
			store := NewMemoryStore()
			m := newTestManager(t, store)
			ctx := context.Background()

			sent, err := m.SendRequest(ctx, "u1", "u2")
			require.NoError(t, err)

			results := make([]error, 2)
			decisions := []models.Decision{models.DecisionAccept, models.DecisionReject}
			var g errgroup.Group
			for i, d := range decisions {
				g.Go(func() error {
					_, results[i] = m.RespondToRequest(ctx, "u2", sent.ID, d)
					return nil
				})
			}
			require.NoError(t, g.Wait())

			var wins, misses int
			winner := -1
			for i, err := range results {
				switch {
				case err == nil:
					wins++
					winner = i
				case errors.Is(err, ErrNotFound):
					misses++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}
			require.Equal(t, 1, wins)
			require.Equal(t, 1, misses)

			stored, err := store.FindByID(ctx, sent.ID)
			require.NoError(t, err)
			want, _ := decisions[winner].Status()
			assert.Equal(t, want, stored.Status)
		})
	}
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(nil)
	assert.Error(t, err)

	_, err = NewManager(NewMemoryStore(), WithClock(nil))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	m, err := NewManager(NewMemoryStore(), WithIDGenerator(func(time.Time) (string, error) {
		return "fixed-id", nil
	}))
	require.NoError(t, err)

	rec, err := m.SendRequest(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", rec.ID)
}

func TestSendRequest_CancelledContext(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.SendRequest(ctx, "u1", "u2")
	assert.ErrorIs(t, err, context.Canceled)
}
