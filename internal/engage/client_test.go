package engage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"likes-service/internal/device"
)

func newHintCache(t *testing.T) *HintCache {
	t.Helper()
	return NewHintCache(device.OpenLocalStore(filepath.Join(t.TempDir(), "local.json")))
}

func TestSeed_UsesLocalHints(t *testing.T) {
	hints := newHintCache(t)
	hints.SetLiked("P1", true)

	c := NewClient("http://unused.invalid", "D1", hints)
	c.Seed([]string{"P1", "P2"})

	p1 := c.Entry("P1")
	assert.Equal(t, PhaseLocalHint, p1.Phase)
	assert.True(t, p1.Liked)
	// The hint cache never stores a count.
	assert.Equal(t, int64(0), p1.Count)

	p2 := c.Entry("P2")
	assert.Equal(t, PhaseLocalHint, p2.Phase)
	assert.False(t, p2.Liked)
}

func TestRefresh_OverwritesHintsWithServerTruth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "D1", r.URL.Query().Get("deviceId"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": map[string]any{
				"P1": map[string]any{"count": 7, "liked": false},
			},
		})
	}))
	defer srv.Close()

	hints := newHintCache(t)
	hints.SetLiked("P1", true) // stale hint

	c := NewClient(srv.URL, "D1", hints)
	c.Seed([]string{"P1"})
	require.NoError(t, c.Refresh(context.Background(), []string{"P1"}))

	e := c.Entry("P1")
	assert.Equal(t, Entry{Count: 7, Liked: false, Phase: PhaseServerConfirmed}, e)
	// The hint cache was reconciled too.
	assert.False(t, hints.Liked("P1"))
}

func TestRefresh_FailureLeavesStateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hints := newHintCache(t)
	hints.SetLiked("P1", true)

	c := NewClient(srv.URL, "D1", hints)
	c.Seed([]string{"P1"})

	assert.Error(t, c.Refresh(context.Background(), []string{"P1"}))
	e := c.Entry("P1")
	assert.Equal(t, PhaseLocalHint, e.Phase)
	assert.True(t, e.Liked)
}

func TestToggleLike_ReconcilesWithServerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req togglePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "P1", req.PostID)
		assert.Equal(t, "D1", req.DeviceID)
		assert.True(t, req.Liked)
		// The server knows about other devices' likes.
		json.NewEncoder(w).Encode(map[string]any{"postId": "P1", "count": 5, "liked": true})
	}))
	defer srv.Close()

	hints := newHintCache(t)
	c := NewClient(srv.URL, "D1", hints)
	c.Seed([]string{"P1"})

	e := c.ToggleLike(context.Background(), "P1")
	assert.Equal(t, Entry{Count: 5, Liked: true, Phase: PhaseServerConfirmed}, e)
	assert.True(t, hints.Liked("P1"))
}

func TestToggleLike_KeepsOptimisticGuessOnFailure(t *testing.T) {
	c := NewClient("http://unreachable.invalid", "D1", newHintCache(t))
	c.Seed([]string{"P1"})

	e := c.ToggleLike(context.Background(), "P1")

	// No rollback: the optimistic flip stays.
	assert.Equal(t, Entry{Count: 1, Liked: true, Phase: PhaseLocalHint}, e)
	assert.Equal(t, e, c.Entry("P1"))
}

func TestToggleLike_OptimisticCountClampsAtZero(t *testing.T) {
	hints := newHintCache(t)
	hints.SetLiked("P1", true)

	c := NewClient("http://unreachable.invalid", "D1", hints)
	c.Seed([]string{"P1"})

	// Unlike at count 0 must not display -1.
	e := c.ToggleLike(context.Background(), "P1")
	assert.Equal(t, int64(0), e.Count)
	assert.False(t, e.Liked)
}

func TestToggleLike_RapidClicksRecomputeFromVisibleState(t *testing.T) {
	c := NewClient("http://unreachable.invalid", "D1", newHintCache(t))
	c.Seed([]string{"P1"})

	first := c.ToggleLike(context.Background(), "P1")
	assert.Equal(t, int64(1), first.Count)
	assert.True(t, first.Liked)

	second := c.ToggleLike(context.Background(), "P1")
	assert.Equal(t, int64(0), second.Count)
	assert.False(t, second.Liked)
}

func TestOnChange_FiresPerTransition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"postId": "P1", "count": 1, "liked": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "D1", newHintCache(t))
	var calls atomic.Int64
	c.OnChange = func(postID string, e Entry) {
		assert.Equal(t, "P1", postID)
		calls.Add(1)
	}

	c.Seed([]string{"P1"})
	c.ToggleLike(context.Background(), "P1")

	// Seed, optimistic flip, server reconcile.
	assert.Equal(t, int64(3), calls.Load())
}
