package post

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	maxTags    = 20
	maxGallery = 5
)

// Manifest is the published posts file the site serves at content/posts.json.
type Manifest struct {
	Posts []Item `json:"posts"`
}

// Normalize cleans up a raw item the way the site compiler does: trimmed
// strings, RFC3339 date (falling back to now when unparsable), capped tag
// and gallery lists, and a stamped id.
func Normalize(item Item, now time.Time) Item {
	item.ID = strings.TrimSpace(item.ID)
	item.Title = strings.TrimSpace(item.Title)
	item.MediaURL = strings.TrimSpace(item.MediaURL)
	item.Date = normalizeDate(item.Date, now)

	tags := make([]string, 0, len(item.Tags))
	for _, t := range item.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
		if len(tags) == maxTags {
			break
		}
	}
	item.Tags = tags

	gallery := make([]string, 0, len(item.Gallery))
	for _, u := range item.Gallery {
		if u = strings.TrimSpace(u); u != "" {
			gallery = append(gallery, u)
		}
		if len(gallery) == maxGallery {
			break
		}
	}
	item.Gallery = gallery

	item.ID = ResolveID(item)
	return item
}

func normalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC().Format(time.RFC3339)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return now.UTC().Format(time.RFC3339)
}

// finalize applies the manifest-wide rules: items without media are dropped,
// newest first, and at most one item stays highlighted.
func finalize(items []Item, now time.Time) []Item {
	posts := make([]Item, 0, len(items))
	for _, it := range items {
		it = Normalize(it, now)
		if it.MediaURL == "" {
			continue
		}
		posts = append(posts, it)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})

	seenHighlighted := false
	for i := range posts {
		if posts[i].Highlighted {
			if seenHighlighted {
				posts[i].Highlighted = false
			}
			seenHighlighted = true
		}
	}
	return posts
}

// ParseManifest decodes and normalizes a published manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.Posts = finalize(m.Posts, time.Now())
	return &m, nil
}

// LoadManifest reads and normalizes the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// CompileManifest reads the per-post JSON files in dir and writes the
// normalized manifest to outPath. Files that are not valid JSON are skipped.
func CompileManifest(dir, outPath string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}

	var items []Item
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read post %s: %w", e.Name(), err)
		}
		var it Item
		if err := json.Unmarshal(data, &it); err != nil {
			continue
		}
		items = append(items, it)
	}

	m := &Manifest{Posts: finalize(items, time.Now())}

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(outPath, append(out, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}
