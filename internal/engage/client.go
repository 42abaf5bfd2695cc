package engage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type wireEntry struct {
	Count int64 `json:"count"`
	Liked bool  `json:"liked"`
}

type batchPayload struct {
	Items map[string]wireEntry `json:"items"`
}

type togglePayload struct {
	PostID   string `json:"postId"`
	DeviceID string `json:"deviceId"`
	Liked    bool   `json:"liked"`
}

// Client keeps the per-post engagement state for a page session: an
// in-memory map seeded from local hints, overwritten by server truth, and
// mutated optimistically ahead of each toggle round trip.
type Client struct {
	baseURL  string
	client   *http.Client
	deviceID string
	hints    *HintCache

	mu      sync.Mutex
	entries map[string]Entry

	// OnChange, when set, is invoked after every state transition for a
	// post. A UI binds all controls showing the same post id here; state is
	// stored once per id, so two controls for one post can never
	// double-count.
	OnChange func(postID string, e Entry)
}

func NewClient(baseURL, deviceID string, hints *HintCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deviceID: deviceID,
		hints:    hints,
		entries:  make(map[string]Entry),
	}
}

// Entry returns the current displayed state for a post. Unknown posts render
// as 0 / not liked.
func (c *Client) Entry(postID string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[postID]
}

// Seed moves unknown posts to the local-hint phase for instant render. Posts
// already past that phase are left alone.
func (c *Client) Seed(postIDs []string) {
	for _, id := range postIDs {
		c.mu.Lock()
		e, ok := c.entries[id]
		if !ok || e.Phase == PhaseUnknown {
			e = Entry{Liked: c.hints.Liked(id), Phase: PhaseLocalHint}
			c.entries[id] = e
			c.mu.Unlock()
			c.notify(id, e)
			continue
		}
		c.mu.Unlock()
	}
}

// Refresh fetches authoritative state for the given posts and reconciles the
// local view. On failure the local view is untouched and the error is
// returned; the caller decides whether it is worth surfacing (the initial
// page fetch is, an ordinary refresh is not).
func (c *Client) Refresh(ctx context.Context, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(postIDs, ","))
	q.Set("deviceId", c.deviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/likes?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch likes state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("likes state responded with status: %d", resp.StatusCode)
	}

	var payload batchPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode likes state: %w", err)
	}

	for id, it := range payload.Items {
		c.mu.Lock()
		e := c.entries[id]
		e.Count = it.Count
		e.Liked = it.Liked
		e.Phase = PhaseServerConfirmed
		c.entries[id] = e
		c.mu.Unlock()
		c.hints.SetLiked(id, it.Liked)
		c.notify(id, e)
	}
	return nil
}

// ToggleLike flips the displayed state immediately and then asks the server
// to apply it. The server response overwrites the guess; a failed request
// leaves the guess in place rather than flickering the UI back, and the next
// full refresh reconciles. The returned entry is the optimistic view.
func (c *Client) ToggleLike(ctx context.Context, postID string) Entry {
	c.mu.Lock()
	e := c.entries[postID]
	if e.Phase == PhaseUnknown {
		e.Liked = c.hints.Liked(postID)
		e.Phase = PhaseLocalHint
	}
	next := !e.Liked
	if next {
		e.Count++
	} else {
		e.Count--
		if e.Count < 0 {
			e.Count = 0
		}
	}
	e.Liked = next
	e.Pending = true
	c.entries[postID] = e
	c.mu.Unlock()

	c.hints.SetLiked(postID, next)
	c.notify(postID, e)

	result, err := c.postToggle(ctx, postID, next)
	if err != nil {
		slog.Debug("like toggle not confirmed, keeping optimistic state",
			"postId", postID, "error", err)
		c.mu.Lock()
		e = c.entries[postID]
		e.Pending = false
		c.entries[postID] = e
		c.mu.Unlock()
		c.notify(postID, e)
		return e
	}

	c.mu.Lock()
	e = c.entries[postID]
	e.Count = result.Count
	e.Liked = result.Liked
	e.Phase = PhaseServerConfirmed
	e.Pending = false
	c.entries[postID] = e
	c.mu.Unlock()

	c.hints.SetLiked(postID, result.Liked)
	c.notify(postID, e)
	return e
}

func (c *Client) postToggle(ctx context.Context, postID string, liked bool) (wireEntry, error) {
	body, err := json.Marshal(togglePayload{
		PostID:   postID,
		DeviceID: c.deviceID,
		Liked:    liked,
	})
	if err != nil {
		return wireEntry{}, fmt.Errorf("failed to marshal toggle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/likes", bytes.NewBuffer(body))
	if err != nil {
		return wireEntry{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return wireEntry{}, fmt.Errorf("failed to send toggle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wireEntry{}, fmt.Errorf("toggle responded with status: %d", resp.StatusCode)
	}

	var result wireEntry
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return wireEntry{}, fmt.Errorf("failed to decode toggle response: %w", err)
	}
	return result, nil
}

func (c *Client) notify(postID string, e Entry) {
	if c.OnChange != nil {
		c.OnChange(postID, e)
	}
}
