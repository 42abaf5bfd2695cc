package engage

import (
	"likes-service/internal/device"
)

// hintKeyPrefix matches the browser client's per-post local storage keys.
const hintKeyPrefix = "rx_like_"

// HintCache persists a liked boolean per post in client-local storage. It is
// an offline, pre-fetch hint only — never authoritative once the Like Store
// has responded — but it survives independently of the device id, so a
// cleared device id still renders the user's last known hearts.
type HintCache struct {
	store *device.LocalStore
}

func NewHintCache(store *device.LocalStore) *HintCache {
	return &HintCache{store: store}
}

func (h *HintCache) Liked(postID string) bool {
	if h.store == nil {
		return false
	}
	v, ok := h.store.Get(hintKeyPrefix + postID)
	return ok && v == "1"
}

func (h *HintCache) SetLiked(postID string, liked bool) {
	if h.store == nil {
		return
	}
	v := "0"
	if liked {
		v = "1"
	}
	// Best effort, same as the rest of local storage.
	_ = h.store.Set(hintKeyPrefix+postID, v)
}
