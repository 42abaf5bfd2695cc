package post

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// FromFeed discovers posts from the site's published RSS/Atom feed and maps
// them onto manifest items, with ids resolved the same way the site does.
// The first enclosure wins as the media URL; items without one fall back to
// their link so they still resolve to a stable id.
func FromFeed(ctx context.Context, url string) ([]Item, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	now := time.Now()
	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if fi == nil {
			continue
		}
		it := Item{
			ID:          fi.GUID,
			Title:       fi.Title,
			MediaURL:    fi.Link,
			Description: fi.Description,
			Tags:        fi.Categories,
		}
		if len(fi.Enclosures) > 0 && fi.Enclosures[0] != nil && fi.Enclosures[0].URL != "" {
			it.MediaURL = fi.Enclosures[0].URL
		}
		if fi.PublishedParsed != nil {
			it.Date = fi.PublishedParsed.UTC().Format(time.RFC3339)
		} else if fi.UpdatedParsed != nil {
			it.Date = fi.UpdatedParsed.UTC().Format(time.RFC3339)
		}
		it = Normalize(it, now)
		if it.MediaURL == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
