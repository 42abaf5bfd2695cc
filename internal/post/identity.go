package post

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Item is one published content item from the site manifest.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Highlighted bool     `json:"highlighted"`
	Tags        []string `json:"tags"`
	MediaURL    string   `json:"media_url"`
	Gallery     []string `json:"gallery"`
	Description string   `json:"description"`
}

// ResolveID returns the stable identifier that keys engagement state for an
// item. An explicit id wins; otherwise the id is derived from the item's
// fields, so the same logical post keeps its accumulated likes across
// rebuilds. Every producer of a post id must go through this function or
// counts fragment across differently-derived ids.
func ResolveID(item Item) string {
	if id := strings.TrimSpace(item.ID); id != "" {
		return id
	}
	basis := item.MediaURL + "|" + item.Date + "|" + item.Title
	h := fnv.New32a()
	h.Write([]byte(basis))
	return fmt.Sprintf("p_%08x", h.Sum32())
}
