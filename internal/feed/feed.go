// Package feed retrieves configured feeds through the JSON-envelope proxy
// and normalizes their items into stories.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/story"
)

// Item is one raw feed entry before normalization. Missing fields stay "".
type Item struct {
	Title   string
	Link    string
	PubDate string
}

// envelope is the proxy response: the target's raw body wrapped as text.
type envelope struct {
	Contents string `json:"contents"`
}

// Fetcher retrieves feed items through the proxy.
type Fetcher struct {
	proxyURL string
	client   *http.Client
	parser   *gofeed.Parser
}

// NewFetcher creates a fetcher that wraps target URLs with the given proxy
// endpoint, e.g. https://api.allorigins.win/get.
func NewFetcher(proxyURL string, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		proxyURL: proxyURL,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		parser: gofeed.NewParser(),
	}
}

// FetchItems retrieves one feed's items. Best-effort: any network or parse
// failure logs a warning and returns nil, never an error to the caller.
func (f *Fetcher) FetchItems(ctx context.Context, feedURL string) []Item {
	items, err := f.fetchItems(ctx, feedURL)
	if err != nil {
		log.Printf("Feed fetch failed for %s: %v", feedURL, err)
		return nil
	}
	return items
}

func (f *Fetcher) fetchItems(ctx context.Context, feedURL string) ([]Item, error) {
	proxied := f.proxyURL + "?url=" + url.QueryEscape(feedURL)

	req, err := http.NewRequestWithContext(ctx, "GET", proxied, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "statewatch/1.0 (news dashboard)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("proxy response %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding proxy envelope: %w", err)
	}
	if env.Contents == "" {
		return nil, nil
	}

	parsed, err := f.parser.ParseString(env.Contents)
	if err != nil {
		return nil, fmt.Errorf("parsing feed body: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, Item{
			Title:   strings.TrimSpace(it.Title),
			Link:    strings.TrimSpace(it.Link),
			PubDate: strings.TrimSpace(it.Published),
		})
	}
	return items, nil
}

// Normalize turns raw items into stories carrying the feed's state and
// source name. Every story gets a fresh ID; identity across refreshes is
// the dedupe key, not the ID.
func Normalize(f appdata.Feed, items []Item) []story.Story {
	stories := make([]story.Story, 0, len(items))
	for _, it := range items {
		stories = append(stories, story.Story{
			ID:      uuid.NewString(),
			FeedID:  f.ID,
			State:   f.State,
			Title:   it.Title,
			Link:    it.Link,
			PubDate: it.PubDate,
			Source:  f.Name,
		})
	}
	return stories
}

// MatchDefcon reports whether a story title contains any configured keyword,
// case-insensitive, first match short-circuits.
func MatchDefcon(s story.Story, keywords []appdata.Keyword) bool {
	if s.Title == "" {
		return false
	}
	headline := strings.ToLower(s.Title)
	for _, kw := range keywords {
		word := strings.ToLower(kw.Word)
		if word != "" && strings.Contains(headline, word) {
			return true
		}
	}
	return false
}

// MarkDefcon sets IsDefcon on every story whose title matches a keyword.
func MarkDefcon(stories []story.Story, keywords []appdata.Keyword) {
	for i := range stories {
		stories[i].IsDefcon = MatchDefcon(stories[i], keywords)
	}
}
