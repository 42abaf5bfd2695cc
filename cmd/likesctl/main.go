package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"likes-service/internal/device"
	"likes-service/internal/engage"
	"likes-service/internal/post"
)

// likesctl drives the engagement client from the command line: it loads the
// site's posts (from the published manifest or its RSS feed), shows their
// live like state, and toggles hearts the same way the site does.
func main() {
	serverURL := flag.String("server", "http://localhost:8788", "Likes service base URL")
	manifestPath := flag.String("manifest", "content/posts.json", "Path to the published posts manifest")
	feedURL := flag.String("feed", "", "Discover posts from this RSS/Atom feed instead of the manifest")
	statePath := flag.String("state", defaultStatePath(), "Path to client-local storage")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "list"
	}

	if cmd == "compile" {
		dir := flag.Arg(1)
		if dir == "" {
			fmt.Fprintln(os.Stderr, "usage: likesctl compile <posts-dir>")
			os.Exit(2)
		}
		m, err := post.CompileManifest(dir, *manifestPath)
		if err != nil {
			logger.Error("Failed to compile manifest", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d posts to %s\n", len(m.Posts), *manifestPath)
		return
	}

	items, err := loadItems(ctx, *manifestPath, *feedURL)
	if err != nil {
		// Without content there is nothing to render; this is the one
		// failure worth surfacing.
		logger.Error("Failed to load posts", "error", err)
		os.Exit(1)
	}

	store := device.OpenLocalStore(*statePath)
	deviceID := device.NewProvider(store).GetOrCreate()
	client := engage.NewClient(*serverURL, deviceID, engage.NewHintCache(store))

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, post.ResolveID(it))
	}
	client.Seed(ids)
	if err := client.Refresh(ctx, ids); err != nil {
		logger.Warn("Showing local state only", "error", err)
	}

	switch cmd {
	case "list":
		for i, it := range items {
			printPost(ids[i], it, client.Entry(ids[i]))
		}

	case "like", "unlike":
		id := flag.Arg(1)
		if id == "" {
			fmt.Fprintf(os.Stderr, "usage: likesctl %s <postId>\n", cmd)
			os.Exit(2)
		}
		desired := cmd == "like"
		entry := client.Entry(id)
		if entry.Liked != desired {
			entry = client.ToggleLike(ctx, id)
		}
		fmt.Printf("%s  count=%d liked=%v (%s)\n", id, entry.Count, entry.Liked, entry.Phase)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want list, like, unlike or compile)\n", cmd)
		os.Exit(2)
	}
}

func loadItems(ctx context.Context, manifestPath, feedURL string) ([]post.Item, error) {
	if feedURL != "" {
		return post.FromFeed(ctx, feedURL)
	}
	m, err := post.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return m.Posts, nil
}

func printPost(id string, it post.Item, e engage.Entry) {
	heart := " "
	if e.Liked {
		heart = "♥"
	}
	fmt.Printf("%s %-14s %4d  %s  %s\n", heart, id, e.Count, it.Date, it.Title)
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".likesctl.json"
	}
	return filepath.Join(dir, "likesctl", "local.json")
}
