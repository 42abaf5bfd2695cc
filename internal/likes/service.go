package likes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"likes-service/internal/state"
)

// MaxBatchIDs bounds the fan-out of a single batch read. Requests carrying
// more ids are silently truncated.
const MaxBatchIDs = 50

var (
	metricBatchReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_batch_reads_total",
		Help: "The total number of batch state reads",
	}, []string{"status"})

	metricToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_toggles_total",
		Help: "The total number of like toggle requests",
	}, []string{"outcome"})
)

// ErrValidation marks caller mistakes (empty postId/deviceId) that map to a
// 4xx at the HTTP surface.
var ErrValidation = errors.New("likes: invalid input")

// Entry is the engagement state of one post as seen by one device.
type Entry struct {
	Count int64 `json:"count"`
	Liked bool  `json:"liked"`
}

// Service is the Like Store: a per-post counter plus a presence marker per
// (post, device) pair, both living in the external durable store. Requests
// are stateless; there is no in-process shared state between them.
type Service struct {
	store state.Store
}

func NewService(store state.Store) *Service {
	return &Service{store: store}
}

func countKey(postID string) string {
	return "count:" + postID
}

func deviceKey(postID, deviceID string) string {
	return "device:" + postID + ":" + deviceID
}

// BatchRead fetches {count, liked} for up to MaxBatchIDs posts at once.
// Per-id reads run concurrently. A read that fails or finds nothing yields
// {0, false} for that id; the batch itself never fails.
func (s *Service) BatchRead(ctx context.Context, ids []string, deviceID string) map[string]Entry {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) > MaxBatchIDs {
		clean = clean[:MaxBatchIDs]
	}

	items := make(map[string]Entry, len(clean))
	if len(clean) == 0 {
		return items
	}

	type result struct {
		id    string
		entry Entry
	}
	results := make(chan result, len(clean))

	var wg sync.WaitGroup
	for _, id := range clean {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			results <- result{id: id, entry: s.readOne(ctx, id, deviceID)}
		}(id)
	}
	wg.Wait()
	close(results)

	for r := range results {
		items[r.id] = r.entry
	}
	metricBatchReads.WithLabelValues("success").Inc()
	return items
}

func (s *Service) readOne(ctx context.Context, postID, deviceID string) Entry {
	var entry Entry
	entry.Count = s.readCount(ctx, postID)
	if deviceID != "" {
		_, err := s.store.Get(ctx, deviceKey(postID, deviceID))
		entry.Liked = err == nil
	}
	return entry
}

// readCount treats anything that is not a well-formed non-negative integer
// as zero. Storage is assumed eventually well-formed; anomalies are
// defaulted, never surfaced.
func (s *Service) readCount(ctx context.Context, postID string) int64 {
	val, err := s.store.Get(ctx, countKey(postID))
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			slog.Warn("count read failed, defaulting to 0", "postId", postID, "error", err)
		}
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Toggle sets the liked state of (postID, deviceID) to desired and returns
// the authoritative post-mutation state. Despite the name it is a set, not
// a flip: asking for the state the pair is already in changes nothing.
// There is no lock spanning the membership read and the count adjustment;
// concurrent calls for the same pair can skew the count by at most the
// number of racers, and membership itself converges on the last write.
func (s *Service) Toggle(ctx context.Context, postID, deviceID string, desired bool) (Entry, error) {
	postID = strings.TrimSpace(postID)
	deviceID = strings.TrimSpace(deviceID)
	if postID == "" || deviceID == "" {
		metricToggles.WithLabelValues("invalid").Inc()
		return Entry{}, fmt.Errorf("%w: missing postId or deviceId", ErrValidation)
	}

	key := deviceKey(postID, deviceID)
	_, err := s.store.Get(ctx, key)
	alreadyLiked := err == nil

	switch {
	case desired && !alreadyLiked:
		if err := s.store.Set(ctx, key, "1"); err != nil {
			return Entry{}, fmt.Errorf("store membership: %w", err)
		}
		count, err := s.adjustCount(ctx, postID, 1)
		if err != nil {
			return Entry{}, err
		}
		metricToggles.WithLabelValues("liked").Inc()
		return Entry{Count: count, Liked: true}, nil

	case !desired && alreadyLiked:
		if err := s.store.Delete(ctx, key); err != nil {
			return Entry{}, fmt.Errorf("delete membership: %w", err)
		}
		count, err := s.adjustCount(ctx, postID, -1)
		if err != nil {
			return Entry{}, err
		}
		metricToggles.WithLabelValues("unliked").Inc()
		return Entry{Count: count, Liked: false}, nil

	default:
		// Repeated like or unlike is a no-op.
		metricToggles.WithLabelValues("noop").Inc()
		return Entry{Count: s.readCount(ctx, postID), Liked: alreadyLiked}, nil
	}
}

// adjustCount applies delta through the store's atomic increment and clamps
// the result at zero. A malformed stored value makes IncrBy fail on valkey,
// so that path falls back to read-default-write.
func (s *Service) adjustCount(ctx context.Context, postID string, delta int64) (int64, error) {
	key := countKey(postID)
	count, err := s.store.IncrBy(ctx, key, delta)
	if err != nil {
		count = s.readCount(ctx, postID) + delta
	}
	if count < 0 {
		count = 0
		if err := s.store.Set(ctx, key, "0"); err != nil {
			return 0, fmt.Errorf("clamp count: %w", err)
		}
	} else if err != nil {
		if err := s.store.Set(ctx, key, strconv.FormatInt(count, 10)); err != nil {
			return 0, fmt.Errorf("store count: %w", err)
		}
	}
	return count, nil
}
